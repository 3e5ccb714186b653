package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/companyscraper/internal/models"
	"github.com/RecoveryAshes/companyscraper/internal/utils"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// 页面选择器,与公司主页模板的DOM结构一一对应
const (
	selCompanyName = ".top-card-layout__entity-info h1"
	selLogo        = "div.top-card-layout__entity-image-container img"
	selAbout       = ".core-section-container__content p"
	selEmployeeCTA = "a.face-pile__cta"
	selDetailRows  = ".core-section-container__content .mb-2"
	selRowText     = ".text-md"
	selFunding     = "p.text-display-lg"

	attrLogo = "data-delayed-url"

	xpFollowers     = `//h3[contains(@class, "top-card-layout__first-subline")]/span/following-sibling::text()`
	xpFundingRounds = `//section[contains(@class, "aside-section-container")]/div/a[contains(@class, "link-styled")]//span[contains(@class, "before:middot")]/text()`
	xpFundingOption = `//section[contains(@class, "aside-section-container")]/div//div[contains(@class, "my-2")]/a[contains(@class, "link-styled")]/text()`
	xpLastRound     = `//section[contains(@class, "aside-section-container")]/div//div[contains(@class, "my-2")]/a[contains(@class, "link-styled")]//time[contains(@class, "before:middot")]/text()`
)

var employeeCountRegex = regexp.MustCompile(`\d{1,3}(?:,\d{3})*`)

var errNoMatch = errors.New("未找到匹配元素")

// Extractor 将公司主页映射为CompanyRecord
// 无状态,可在多个页面间复用
type Extractor struct {
	policy models.LabelPolicy
}

// New 创建提取器,空策略按positional处理
func New(policy models.LabelPolicy) *Extractor {
	if policy == "" {
		policy = models.PolicyPositional
	}
	return &Extractor{policy: policy}
}

// Policy 当前的详情块映射策略
func (e *Extractor) Policy() models.LabelPolicy {
	return e.policy
}

// page 一次解析得到的DOM,CSS与XPath共享同一棵树
type page struct {
	url  string
	root *html.Node
	dom  *goquery.Document
}

// Extract 提取一个页面; 永不返回错误,任何字段失败都降级为not-found
func (e *Extractor) Extract(doc *models.Document) *models.CompanyRecord {
	record := models.NewCompanyRecord()

	root, err := htmlquery.Parse(bytes.NewReader(doc.Body))
	if err != nil {
		utils.Logger.Error().Err(err).Str("url", doc.URL).Msg("HTML解析失败,输出空记录")
		return record
	}
	p := &page{url: doc.URL, root: root, dom: goquery.NewDocumentFromNode(root)}

	name, ok := firstOwnText(p.dom.Find(selCompanyName))
	if ok {
		record.Set(models.FieldCompanyName, models.Text(strings.TrimSpace(name)))
	}
	utils.Infof("公司名称: %s", record.CompanyName())

	e.extractTopCard(p, record)

	switch e.policy {
	case models.PolicyStrict:
		e.extractDetailsByLabel(p, record)
		extractFunding(p, record)
	default:
		if err := e.extractDetailsPositional(p, record); err != nil {
			utils.Logger.Error().Err(err).Str("url", p.url).Msg("详情块缺少数据,跳过剩余字段")
			return record
		}
		extractFunding(p, record)
	}

	return record
}

func (e *Extractor) extractTopCard(p *page, record *models.CompanyRecord) {
	followers, err := parseFollowers(p)
	if err != nil {
		p.fieldError(models.FieldFollowersCount, err)
	} else {
		record.Set(models.FieldFollowersCount, models.Int(followers))
	}

	if logo, ok := p.dom.Find(selLogo).Attr(attrLogo); ok {
		record.Set(models.FieldLogoURL, models.Text(logo))
	}

	if about, ok := firstOwnText(p.dom.Find(selAbout)); ok {
		record.Set(models.FieldAboutUs, models.Text(strings.TrimSpace(about)))
	}

	if cta, ok := firstOwnText(p.dom.Find(selEmployeeCTA)); ok {
		if n, err := parseEmployeeCount(cta); err == nil {
			record.Set(models.FieldNumOfEmployees, models.Int(n))
		} else {
			utils.Debugf("员工数未匹配 [%s]: %q", p.url, strings.TrimSpace(cta))
		}
	}
}

// extractFunding 融资信息位于侧栏,各字段独立
func extractFunding(p *page, record *models.CompanyRecord) {
	if funding, ok := firstOwnText(p.dom.Find(selFunding)); ok {
		record.Set(models.FieldFunding, models.Text(strings.TrimSpace(funding)))
	}

	if text, err := p.xpathText(xpFundingRounds); err == nil {
		if rounds, err := leadingInt(text); err == nil {
			record.Set(models.FieldFundingTotalRounds, models.Int(rounds))
		} else {
			p.fieldError(models.FieldFundingTotalRounds, err)
		}
	}

	if option, err := p.xpathText(xpFundingOption); err == nil {
		record.Set(models.FieldFundingOption, models.Text(strings.TrimSpace(option)))
	}

	if last, err := p.xpathText(xpLastRound); err == nil {
		record.Set(models.FieldLastFundingRound, models.Text(strings.TrimSpace(last)))
	}
}

func parseFollowers(p *page) (int64, error) {
	text, err := p.xpathText(xpFollowers)
	if err != nil {
		return 0, err
	}
	token, ok := firstToken(text)
	if !ok {
		return 0, fmt.Errorf("关注数文本为空")
	}
	return strconv.ParseInt(strings.ReplaceAll(token, ",", ""), 10, 64)
}

// parseEmployeeCount 取第一个千分位数字串,如 "See all 1,234 employees" -> 1234
func parseEmployeeCount(text string) (int64, error) {
	match := employeeCountRegex.FindString(strings.TrimSpace(text))
	if match == "" {
		return 0, errNoMatch
	}
	return strconv.ParseInt(strings.ReplaceAll(match, ",", ""), 10, 64)
}

// leadingInt 解析第一个空白分隔的整数,如 "3 total rounds" -> 3
func leadingInt(text string) (int64, error) {
	token, ok := firstToken(text)
	if !ok {
		return 0, fmt.Errorf("文本为空")
	}
	return strconv.ParseInt(token, 10, 64)
}

func firstToken(text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}

// xpathText 返回XPath第一个结果的文本
func (p *page) xpathText(expr string) (string, error) {
	node, err := htmlquery.Query(p.root, expr)
	if err != nil {
		return "", err
	}
	if node == nil {
		return "", errNoMatch
	}
	return htmlquery.InnerText(node), nil
}

func (p *page) fieldError(field string, err error) {
	utils.Logger.Error().
		Err(err).
		Str("url", p.url).
		Str("field", field).
		Msg("字段提取失败")
}

// ownTexts 匹配元素的直接文本子节点(按文档顺序)
func ownTexts(sel *goquery.Selection) []string {
	var texts []string
	for _, n := range sel.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				texts = append(texts, c.Data)
			}
		}
	}
	return texts
}

func firstOwnText(sel *goquery.Selection) (string, bool) {
	texts := ownTexts(sel)
	if len(texts) == 0 {
		return "", false
	}
	return texts[0], true
}
