package ats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lark-ats/internal/common/validation"
)

func TestFields_Order(t *testing.T) {
	want := []string{
		"担当CA名", "求職者氏名", "送客元", "紹介企業名", "選考ステップ", "ヨミ", "ネクストアクション",
		"初回面談日", "入社承諾日", "入社日", "決定年収", "現職（企業）", "現職種", "希望職種",
	}

	got := make([]string, len(Fields))
	for i, def := range Fields {
		got[i] = def.Name
	}
	assert.Equal(t, want, got)
	assert.Equal(t, "採用管理（ATS）", TableName)
}

func TestFields_Kinds(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
	}{
		{FieldCareerAdvisor, KindSingleSelect},
		{FieldReferralSource, KindSingleSelect},
		{FieldSelectionStep, KindSingleSelect},
		{FieldForecast, KindSingleSelect},
		{FieldFirstInterviewDate, KindDate},
		{FieldOfferAcceptedDate, KindDate},
		{FieldJoinDate, KindDate},
		{FieldDecidedSalary, KindNumber},
		{FieldCandidateName, KindText},
		{FieldTargetCompany, KindText},
		{FieldNextAction, KindText},
		{FieldCurrentCompany, KindText},
		{FieldCurrentJob, KindText},
		{FieldDesiredJob, KindText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, ok := FieldByName(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.kind, def.Kind())
			assert.NotEmpty(t, def.Description)
		})
	}
}

func TestFields_Properties(t *testing.T) {
	def, _ := FieldByName(FieldSelectionStep)
	options, ok := def.Property["options"].([]SelectOption)
	require.True(t, ok)
	require.Len(t, options, 10)
	assert.Equal(t, SelectOption{Name: "面談", Color: 0}, options[0])
	assert.Equal(t, SelectOption{Name: "辞退", Color: 9}, options[9])

	def, _ = FieldByName(FieldForecast)
	assert.Equal(t, ForecastOptions, def.Property["options"])
	assert.Equal(t, "A（80%）", ForecastOptions[0].Name)

	def, _ = FieldByName(FieldJoinDate)
	assert.Equal(t, "yyyy/MM/dd", def.Property["date_formatter"])

	def, _ = FieldByName(FieldDecidedSalary)
	assert.Equal(t, "0", def.Property["formatter"])

	def, _ = FieldByName(FieldCandidateName)
	assert.Nil(t, def.Property)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindText, KindOf(FieldTypeText))
	assert.Equal(t, KindNumber, KindOf(FieldTypeNumber))
	assert.Equal(t, KindSingleSelect, KindOf(FieldTypeSingleSelect))
	assert.Equal(t, KindDate, KindOf(FieldTypeDateTime))
	assert.Equal(t, KindDate, KindOf(FieldTypeCreatedTime))
	assert.Equal(t, KindText, KindOf(FieldTypeURL))
}

func TestFieldByName_Unknown(t *testing.T) {
	_, ok := FieldByName("年齢")
	assert.False(t, ok)
}

func TestRecordJSONSchema(t *testing.T) {
	tests := []struct {
		name      string
		document  string
		badFields []string
	}{
		{name: "typed values", document: `{"担当CA名":"道村","決定年収":600,"入社日":1717200000000}`},
		{name: "null clears", document: `{"ヨミ":null}`},
		{name: "option outside list", document: `{"選考ステップ":"保留"}`},
		{name: "salary as text", document: `{"決定年収":"600"}`, badFields: []string{"決定年収"}},
		{name: "date as text", document: `{"入社日":"2024-06-01"}`, badFields: []string{"入社日"}},
		{name: "unknown column", document: `{"年齢":30}`, badFields: []string{"(root)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := validation.ValidateDocument(RecordJSONSchema(), []byte(tt.document))

			require.NoError(t, err)
			assert.Equal(t, len(tt.badFields) == 0, result.Valid)
			for _, field := range tt.badFields {
				assert.Contains(t, invalidFields(result), field)
			}
		})
	}
}

func TestRecordBatchJSONSchema(t *testing.T) {
	result, err := validation.ValidateDocument(RecordBatchJSONSchema(),
		[]byte(`[{"求職者氏名":"A"},{"求職者氏名":1}]`))

	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, invalidFields(result), "1.求職者氏名")
}

func invalidFields(result *validation.ValidationResult) []string {
	fields := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		fields = append(fields, e.Field)
	}
	return fields
}
