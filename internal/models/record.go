package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// NotFoundText 字段缺失时的占位值
const NotFoundText = "not-found"

// 记录字段名
const (
	FieldCompanyName        = "company_name"
	FieldFollowersCount     = "linkedin_followers_count"
	FieldLogoURL            = "company_logo_url"
	FieldAboutUs            = "about_us"
	FieldNumOfEmployees     = "num_of_employees"
	FieldWebsite            = "website"
	FieldIndustry           = "industry"
	FieldCompanySize        = "company_size_approx"
	FieldHeadquarters       = "headquarters"
	FieldType               = "type"
	FieldFounded            = "founded"
	FieldSpecialties        = "specialties"
	FieldFunding            = "funding"
	FieldFundingTotalRounds = "funding_total_rounds"
	FieldFundingOption      = "funding_option"
	FieldLastFundingRound   = "last_funding_round"
)

// RecordFields 固定字段顺序(即JSON输出顺序)
var RecordFields = []string{
	FieldCompanyName,
	FieldFollowersCount,
	FieldLogoURL,
	FieldAboutUs,
	FieldNumOfEmployees,
	FieldWebsite,
	FieldIndustry,
	FieldCompanySize,
	FieldHeadquarters,
	FieldType,
	FieldFounded,
	FieldSpecialties,
	FieldFunding,
	FieldFundingTotalRounds,
	FieldFundingOption,
	FieldLastFundingRound,
}

type valueKind uint8

const (
	kindNotFound valueKind = iota
	kindText
	kindInt
)

// Value 字段值: 文本、整数或not-found占位
// 零值即NotFound
type Value struct {
	kind valueKind
	text string
	num  int64
}

// NotFound 缺失占位
var NotFound = Value{}

// Text 文本值
func Text(s string) Value {
	return Value{kind: kindText, text: s}
}

// Int 整数值
func Int(n int64) Value {
	return Value{kind: kindInt, num: n}
}

// IsNotFound 是否为占位值
func (v Value) IsNotFound() bool {
	return v.kind == kindNotFound
}

// AsText 返回文本值
func (v Value) AsText() (string, bool) {
	return v.text, v.kind == kindText
}

// AsInt 返回整数值
func (v Value) AsInt() (int64, bool) {
	return v.num, v.kind == kindInt
}

// String 实现fmt.Stringer
func (v Value) String() string {
	switch v.kind {
	case kindText:
		return v.text
	case kindInt:
		return strconv.FormatInt(v.num, 10)
	default:
		return NotFoundText
	}
}

// MarshalJSON 实现json.Marshaler
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindText:
		return json.Marshal(v.text)
	case kindInt:
		return []byte(strconv.FormatInt(v.num, 10)), nil
	default:
		return json.Marshal(NotFoundText)
	}
}

// UnmarshalJSON 实现json.Unmarshaler
// 字符串"not-found"还原为NotFound
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == NotFoundText {
			*v = NotFound
		} else {
			*v = Text(s)
		}
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("无法解析字段值 %s: %w", data, err)
	}
	*v = Int(n)
	return nil
}

// Field 键值对
type Field struct {
	Key   string
	Value Value
}

// CompanyRecord 一个公司主页的提取结果
type CompanyRecord struct {
	values map[string]Value
	// extras 第6行标签既非founded也非specialties时产生的动态字段
	extras []Field
}

// NewCompanyRecord 创建记录,所有固定字段初始为NotFound
func NewCompanyRecord() *CompanyRecord {
	values := make(map[string]Value, len(RecordFields))
	for _, name := range RecordFields {
		values[name] = NotFound
	}
	return &CompanyRecord{values: values}
}

// IsRecordField 是否为固定字段
func IsRecordField(key string) bool {
	for _, name := range RecordFields {
		if name == key {
			return true
		}
	}
	return false
}

// Set 设置字段,未知键追加为动态字段(同名则覆盖)
func (r *CompanyRecord) Set(key string, v Value) {
	if IsRecordField(key) {
		r.values[key] = v
		return
	}
	for i := range r.extras {
		if r.extras[i].Key == key {
			r.extras[i].Value = v
			return
		}
	}
	r.extras = append(r.extras, Field{Key: key, Value: v})
}

// Get 读取字段
func (r *CompanyRecord) Get(key string) (Value, bool) {
	if v, ok := r.values[key]; ok {
		return v, true
	}
	for _, f := range r.extras {
		if f.Key == key {
			return f.Value, true
		}
	}
	return NotFound, false
}

// Fields 按输出顺序返回所有字段
func (r *CompanyRecord) Fields() []Field {
	fields := make([]Field, 0, len(RecordFields)+len(r.extras))
	for _, name := range RecordFields {
		fields = append(fields, Field{Key: name, Value: r.values[name]})
	}
	return append(fields, r.extras...)
}

// CompanyName 公司名称(文本),缺失时返回空串
func (r *CompanyRecord) CompanyName() string {
	name, _ := r.values[FieldCompanyName].AsText()
	return name
}

// MarshalJSON 按固定顺序输出键
func (r *CompanyRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		val, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
