// Package ats declares the applicant tracking table stored in Lark Base and
// the operations used to provision it and manage its records.
package ats

// FieldType is the numeric Lark Base column type.
type FieldType int

const (
	FieldTypeText         FieldType = 1
	FieldTypeNumber       FieldType = 2
	FieldTypeSingleSelect FieldType = 3
	FieldTypeMultiSelect  FieldType = 4
	FieldTypeDateTime     FieldType = 5
	FieldTypeCheckbox     FieldType = 7
	FieldTypePerson       FieldType = 11
	FieldTypePhone        FieldType = 13
	FieldTypeURL          FieldType = 15
	FieldTypeAttachment   FieldType = 17
	FieldTypeSingleLink   FieldType = 18
	FieldTypeLookup       FieldType = 19
	FieldTypeFormula      FieldType = 20
	FieldTypeDuplexLink   FieldType = 21
	FieldTypeLocation     FieldType = 22
	FieldTypeGroupChat    FieldType = 23
	FieldTypeCreatedTime  FieldType = 1001
	FieldTypeModifiedTime FieldType = 1002
	FieldTypeCreatedUser  FieldType = 1003
	FieldTypeModifiedUser FieldType = 1004
	FieldTypeAutoNumber   FieldType = 1005
)

// Kind is how a record value is shaped on the wire.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindSingleSelect
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindSingleSelect:
		return "single_select"
	case KindDate:
		return "date"
	default:
		return "text"
	}
}

// KindOf maps a column type to the value shape the record layer uses.
// Types the ATS table does not declare are treated as text.
func KindOf(t FieldType) Kind {
	switch t {
	case FieldTypeNumber:
		return KindNumber
	case FieldTypeSingleSelect:
		return KindSingleSelect
	case FieldTypeDateTime, FieldTypeCreatedTime, FieldTypeModifiedTime:
		return KindDate
	default:
		return KindText
	}
}

// SelectOption is one choice of a single-select column.
type SelectOption struct {
	Name  string `json:"name"`
	Color int    `json:"color"`
}

// Column names of the ATS table.
const (
	FieldCareerAdvisor      = "担当CA名"
	FieldCandidateName      = "求職者氏名"
	FieldReferralSource     = "送客元"
	FieldTargetCompany      = "紹介企業名"
	FieldSelectionStep      = "選考ステップ"
	FieldForecast           = "ヨミ"
	FieldNextAction         = "ネクストアクション"
	FieldFirstInterviewDate = "初回面談日"
	FieldOfferAcceptedDate  = "入社承諾日"
	FieldJoinDate           = "入社日"
	FieldDecidedSalary      = "決定年収"
	FieldCurrentCompany     = "現職（企業）"
	FieldCurrentJob         = "現職種"
	FieldDesiredJob         = "希望職種"
)

const TableName = "採用管理（ATS）"

var (
	CareerAdvisorOptions = []SelectOption{
		{Name: "道村", Color: 0},
		{Name: "紺屋", Color: 1},
	}

	ReferralSourceOptions = []SelectOption{
		{Name: "RDS", Color: 0},
		{Name: "キミナラ", Color: 1},
		{Name: "自社", Color: 2},
		{Name: "紹介", Color: 3},
	}

	SelectionStepOptions = []SelectOption{
		{Name: "面談", Color: 0},
		{Name: "書類選考", Color: 1},
		{Name: "一次面接", Color: 2},
		{Name: "二次面接", Color: 3},
		{Name: "最終面接", Color: 4},
		{Name: "内定", Color: 5},
		{Name: "入社承諾", Color: 6},
		{Name: "入社", Color: 7},
		{Name: "お見送り", Color: 8},
		{Name: "辞退", Color: 9},
	}

	ForecastOptions = []SelectOption{
		{Name: "A（80%）", Color: 0},
		{Name: "B（50%）", Color: 1},
		{Name: "C（20%）", Color: 2},
		{Name: "ネタ", Color: 3},
	}
)

// FieldDefinition describes one column to create.
type FieldDefinition struct {
	Name        string
	Type        FieldType
	Description string
	Property    map[string]interface{}
}

// Kind is derived from Type so the schema stays the only place that
// decides how a column's values are converted.
func (d FieldDefinition) Kind() Kind {
	return KindOf(d.Type)
}

func selectProperty(options []SelectOption) map[string]interface{} {
	return map[string]interface{}{"options": options}
}

var dateProperty = map[string]interface{}{"date_formatter": "yyyy/MM/dd"}

// Fields lists the ATS columns in creation order.
var Fields = []FieldDefinition{
	{Name: FieldCareerAdvisor, Type: FieldTypeSingleSelect, Description: "キャリアアドバイザーの名前", Property: selectProperty(CareerAdvisorOptions)},
	{Name: FieldCandidateName, Type: FieldTypeText, Description: "求職者の氏名"},
	{Name: FieldReferralSource, Type: FieldTypeSingleSelect, Description: "紹介元チャネル", Property: selectProperty(ReferralSourceOptions)},
	{Name: FieldTargetCompany, Type: FieldTypeText, Description: "応募先企業名"},
	{Name: FieldSelectionStep, Type: FieldTypeSingleSelect, Description: "現在の選考進捗状況", Property: selectProperty(SelectionStepOptions)},
	{Name: FieldForecast, Type: FieldTypeSingleSelect, Description: "成約確度", Property: selectProperty(ForecastOptions)},
	{Name: FieldNextAction, Type: FieldTypeText, Description: "次のアクション内容"},
	{Name: FieldFirstInterviewDate, Type: FieldTypeDateTime, Description: "初回面談実施日", Property: dateProperty},
	{Name: FieldOfferAcceptedDate, Type: FieldTypeDateTime, Description: "内定承諾日", Property: dateProperty},
	{Name: FieldJoinDate, Type: FieldTypeDateTime, Description: "入社予定日", Property: dateProperty},
	{Name: FieldDecidedSalary, Type: FieldTypeNumber, Description: "決定年収（万円）", Property: map[string]interface{}{"formatter": "0"}},
	{Name: FieldCurrentCompany, Type: FieldTypeText, Description: "現在の勤務先企業名"},
	{Name: FieldCurrentJob, Type: FieldTypeText, Description: "現在の職種"},
	{Name: FieldDesiredJob, Type: FieldTypeText, Description: "希望する職種"},
}

// FieldByName looks up a column definition.
func FieldByName(name string) (FieldDefinition, bool) {
	for _, def := range Fields {
		if def.Name == name {
			return def, true
		}
	}
	return FieldDefinition{}, false
}

// RecordJSONSchema describes a record document keyed by column name. It
// checks shape only; select options are left for Lark to enforce.
func RecordJSONSchema() map[string]interface{} {
	properties := make(map[string]interface{}, len(Fields))
	for _, def := range Fields {
		prop := map[string]interface{}{"description": def.Description}
		switch def.Kind() {
		case KindDate:
			prop["type"] = []string{"integer", "null"}
		case KindNumber:
			prop["type"] = []string{"number", "null"}
		default:
			prop["type"] = []string{"string", "null"}
		}
		properties[def.Name] = prop
	}

	return map[string]interface{}{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
}

// RecordBatchJSONSchema describes an array of record documents.
func RecordBatchJSONSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":  "array",
		"items": RecordJSONSchema(),
	}
}
