package extractor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/companyscraper/internal/models"
	"github.com/RecoveryAshes/companyscraper/internal/utils"
)

// 详情块中的行标签(小写)
const (
	labelIndustry    = "industry"
	labelCompanySize = "company size"
	labelHQ          = "headquarters"
	labelType        = "type"
	labelFounded     = "founded"
	labelSpecialties = "specialties"
)

// variableRow 第5行起标签不固定
const variableRow = 5

// errShortBlock 详情块的行或文本数量不足
var errShortBlock = errors.New("详情块数据缺失")

// detailRow 详情块中的一行
type detailRow struct {
	texts []string
	link  string
	// hasLink 行内存在a元素文本
	hasLink bool
}

func (r detailRow) text(i int) (string, error) {
	if i >= len(r.texts) {
		return "", fmt.Errorf("%w: 需要第 %d 个文本,实际 %d 个", errShortBlock, i+1, len(r.texts))
	}
	return strings.TrimSpace(r.texts[i]), nil
}

func (r detailRow) label() (string, error) {
	s, err := r.text(0)
	if err != nil {
		return "", err
	}
	return strings.ToLower(s), nil
}

func parseDetailRows(dom *goquery.Document) []detailRow {
	var rows []detailRow
	dom.Find(selDetailRows).Each(func(_ int, s *goquery.Selection) {
		row := detailRow{texts: ownTexts(s.Find(selRowText))}
		if link, ok := firstOwnText(s.Find("a")); ok {
			row.link = strings.TrimSpace(link)
			row.hasLink = true
		}
		rows = append(rows, row)
	})
	return rows
}

// rowKind 第5行标签的分类
type rowKind int

const (
	rowUnknown rowKind = iota
	rowFounded
	rowSpecialties
)

// labeledRow 标签不固定的一行: Founded, Specialties 或 Unknown(label)
type labeledRow struct {
	kind  rowKind
	label string
	value string
}

func classify(row detailRow) (labeledRow, error) {
	label, err := row.label()
	if err != nil {
		return labeledRow{}, err
	}
	value, err := row.text(1)
	if err != nil {
		return labeledRow{}, err
	}

	lr := labeledRow{label: label, value: value}
	switch label {
	case labelFounded:
		lr.kind = rowFounded
	case labelSpecialties:
		lr.kind = rowSpecialties
	default:
		lr.kind = rowUnknown
	}
	return lr, nil
}

// detailSlot 固定位置的一行
type detailSlot struct {
	field string
	// label 为空时不校验
	label string
	value func(detailRow) (models.Value, error)
}

func linkValue(r detailRow) (models.Value, error) {
	if !r.hasLink {
		return models.NotFound, nil
	}
	return models.Text(r.link), nil
}

func secondText(r detailRow) (models.Value, error) {
	s, err := r.text(1)
	if err != nil {
		return models.NotFound, err
	}
	return models.Text(s), nil
}

// sizeValue "11-50 employees" -> "11-50"
func sizeValue(r detailRow) (models.Value, error) {
	s, err := r.text(1)
	if err != nil {
		return models.NotFound, err
	}
	token, ok := firstToken(s)
	if !ok {
		return models.NotFound, fmt.Errorf("%w: 公司规模为空", errShortBlock)
	}
	return models.Text(token), nil
}

// positionalSchema 第0-4行
var positionalSchema = []detailSlot{
	{field: models.FieldWebsite, value: linkValue},
	{field: models.FieldIndustry, value: secondText},
	{field: models.FieldCompanySize, value: sizeValue},
	{field: models.FieldHeadquarters, label: labelHQ, value: secondText},
	{field: models.FieldType, value: secondText},
}

// strictSchema 与positionalSchema行数相同,但每行都校验标签
var strictSchema = []detailSlot{
	{field: models.FieldWebsite, value: linkValue},
	{field: models.FieldIndustry, label: labelIndustry, value: secondText},
	{field: models.FieldCompanySize, label: labelCompanySize, value: sizeValue},
	{field: models.FieldHeadquarters, label: labelHQ, value: secondText},
	{field: models.FieldType, label: labelType, value: secondText},
}

// extractDetailsPositional 按行号映射,任一行缺失即放弃剩余字段(含融资字段)
func (e *Extractor) extractDetailsPositional(p *page, record *models.CompanyRecord) error {
	rows := parseDetailRows(p.dom)

	for i, slot := range positionalSchema {
		if i >= len(rows) {
			return fmt.Errorf("%w: 第 %d 行不存在", errShortBlock, i)
		}
		if slot.label != "" {
			label, err := rows[i].label()
			if err != nil {
				return err
			}
			if label != slot.label {
				record.Set(slot.field, models.NotFound)
				continue
			}
		}
		v, err := slot.value(rows[i])
		if err != nil {
			return err
		}
		record.Set(slot.field, v)
	}

	if variableRow >= len(rows) {
		return fmt.Errorf("%w: 第 %d 行不存在", errShortBlock, variableRow)
	}
	fifth, err := classify(rows[variableRow])
	if err != nil {
		return err
	}
	record.Set(fifth.label, models.Text(fifth.value))

	switch fifth.kind {
	case rowFounded:
		next := variableRow + 1
		if next >= len(rows) {
			return fmt.Errorf("%w: 第 %d 行不存在", errShortBlock, next)
		}
		label, err := rows[next].label()
		if err != nil {
			return err
		}
		if label != labelSpecialties {
			record.Set(models.FieldSpecialties, models.NotFound)
			break
		}
		v, err := secondText(rows[next])
		if err != nil {
			return err
		}
		record.Set(models.FieldSpecialties, v)
	default:
		// 第5行不是founded时两者都视为缺失,包括刚写入的specialties
		record.Set(models.FieldFounded, models.NotFound)
		record.Set(models.FieldSpecialties, models.NotFound)
	}
	return nil
}

// extractDetailsByLabel 校验每一行的标签,行数不足或标签不符只影响对应字段
func (e *Extractor) extractDetailsByLabel(p *page, record *models.CompanyRecord) {
	rows := parseDetailRows(p.dom)

	for i, slot := range strictSchema {
		if i >= len(rows) {
			utils.Logger.Warn().Str("url", p.url).Str("field", slot.field).Msg("详情块行数不足")
			continue
		}
		if slot.label != "" {
			label, err := rows[i].label()
			if err != nil || label != slot.label {
				utils.Logger.Warn().
					Str("url", p.url).
					Str("field", slot.field).
					Str("expected", slot.label).
					Str("actual", label).
					Msg("详情行标签不匹配")
				continue
			}
		}
		v, err := slot.value(rows[i])
		if err != nil {
			p.fieldError(slot.field, err)
			continue
		}
		record.Set(slot.field, v)
	}

	for i := variableRow; i < len(rows); i++ {
		lr, err := classify(rows[i])
		if err != nil {
			utils.Logger.Warn().Err(err).Str("url", p.url).Int("row", i).Msg("跳过无法识别的详情行")
			continue
		}
		switch lr.kind {
		case rowFounded:
			record.Set(models.FieldFounded, models.Text(lr.value))
		case rowSpecialties:
			record.Set(models.FieldSpecialties, models.Text(lr.value))
		default:
			if models.IsRecordField(lr.label) {
				utils.Logger.Warn().Str("url", p.url).Str("label", lr.label).Msg("标签与固定字段重名,忽略")
				continue
			}
			record.Set(lr.label, models.Text(lr.value))
		}
	}
}
