package ats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"lark-ats/internal/common/errors"
)

// ATSRecord is one applicant row. Nil fields are absent and are never sent,
// so a partial record can be used for updates.
type ATSRecord struct {
	CareerAdvisor      *string  // 担当CA名
	CandidateName      *string  // 求職者氏名
	ReferralSource     *string  // 送客元
	TargetCompany      *string  // 紹介企業名
	SelectionStep      *string  // 選考ステップ
	Forecast           *string  // ヨミ
	NextAction         *string  // ネクストアクション
	FirstInterviewDate *int64   // 初回面談日, epoch milliseconds
	OfferAcceptedDate  *int64   // 入社承諾日, epoch milliseconds
	JoinDate           *int64   // 入社日, epoch milliseconds
	DecidedSalary      *float64 // 決定年収, 万円
	CurrentCompany     *string  // 現職（企業）
	CurrentJob         *string  // 現職種
	DesiredJob         *string  // 希望職種
}

func String(v string) *string    { return &v }
func Int64(v int64) *int64       { return &v }
func Float64(v float64) *float64 { return &v }

// DateToTimestamp converts t to the millisecond timestamp Lark stores.
func DateToTimestamp(t time.Time) int64 {
	return t.UnixMilli()
}

// TimestampToDate is the inverse of DateToTimestamp.
func TimestampToDate(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// slots binds each column name to the address of its struct field. The
// pointer type behind each slot must agree with the column's Kind.
func (r *ATSRecord) slots() map[string]interface{} {
	return map[string]interface{}{
		FieldCareerAdvisor:      &r.CareerAdvisor,
		FieldCandidateName:      &r.CandidateName,
		FieldReferralSource:     &r.ReferralSource,
		FieldTargetCompany:      &r.TargetCompany,
		FieldSelectionStep:      &r.SelectionStep,
		FieldForecast:           &r.Forecast,
		FieldNextAction:         &r.NextAction,
		FieldFirstInterviewDate: &r.FirstInterviewDate,
		FieldOfferAcceptedDate:  &r.OfferAcceptedDate,
		FieldJoinDate:           &r.JoinDate,
		FieldDecidedSalary:      &r.DecidedSalary,
		FieldCurrentCompany:     &r.CurrentCompany,
		FieldCurrentJob:         &r.CurrentJob,
		FieldDesiredJob:         &r.DesiredJob,
	}
}

// ToLarkFields returns the present fields keyed by column name, each value
// in the shape its column kind expects. Absent fields are left out.
func (r ATSRecord) ToLarkFields() map[string]interface{} {
	out := make(map[string]interface{})
	slots := r.slots()

	for _, def := range Fields {
		switch def.Kind() {
		case KindDate:
			if p := *slots[def.Name].(**int64); p != nil {
				out[def.Name] = *p
			}
		case KindNumber:
			if p := *slots[def.Name].(**float64); p != nil {
				out[def.Name] = *p
			}
		case KindSingleSelect, KindText:
			if p := *slots[def.Name].(**string); p != nil {
				out[def.Name] = *p
			}
		}
	}

	return out
}

// RecordFromFields builds a record from a column-keyed map, such as the
// fields of a fetched row or a JSON document. Unknown columns are rejected.
func RecordFromFields(fields map[string]interface{}) (ATSRecord, error) {
	var r ATSRecord
	slots := r.slots()

	var unknown []string
	for name := range fields {
		if _, ok := FieldByName(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return ATSRecord{}, errors.NewInvalidInputError("Unknown ATS fields", strings.Join(unknown, ", "))
	}

	for _, def := range Fields {
		raw, ok := fields[def.Name]
		if !ok || raw == nil {
			continue
		}

		switch def.Kind() {
		case KindDate:
			n, err := toFloat(raw)
			if err != nil {
				return ATSRecord{}, fieldError(def, err)
			}
			ms := int64(math.Round(n))
			*slots[def.Name].(**int64) = &ms
		case KindNumber:
			n, err := toFloat(raw)
			if err != nil {
				return ATSRecord{}, fieldError(def, err)
			}
			*slots[def.Name].(**float64) = &n
		case KindSingleSelect, KindText:
			s, err := toText(raw)
			if err != nil {
				return ATSRecord{}, fieldError(def, err)
			}
			*slots[def.Name].(**string) = &s
		}
	}

	return r, nil
}

func fieldError(def FieldDefinition, err error) error {
	return errors.NewInvalidInputError(
		fmt.Sprintf("Invalid value for %s", def.Name),
		fmt.Sprintf("expected %s: %v", def.Kind(), err),
	)
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// toText accepts plain strings and the rich-text segment arrays Lark
// returns when reading text columns.
func toText(v interface{}) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []interface{}:
		var b strings.Builder
		for _, seg := range s {
			m, ok := seg.(map[string]interface{})
			if !ok {
				return "", fmt.Errorf("unsupported segment %T", seg)
			}
			text, _ := m["text"].(string)
			b.WriteString(text)
		}
		return b.String(), nil
	default:
		return "", fmt.Errorf("unsupported type %T", v)
	}
}

// MarshalJSON writes the record with column names as keys.
func (r ATSRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ToLarkFields())
}

func (r *ATSRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return err
	}

	parsed, err := RecordFromFields(fields)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
