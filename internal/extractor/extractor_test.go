package extractor

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/RecoveryAshes/companyscraper/internal/models"
)

const testURL = "https://www.linkedin.com/company/acme"

func row(label, value string) string {
	return fmt.Sprintf(`<div class="mb-2"><dt class="text-md">%s</dt><dd class="text-md">%s</dd></div>`, label, value)
}

func websiteRow(link string) string {
	return fmt.Sprintf(`<div class="mb-2"><dt class="text-md">Website</dt><dd class="text-md"><a href="%s">%s</a></dd></div>`, link, link)
}

// fullRows 完整的详情块
func fullRows() []string {
	return []string{
		websiteRow("https://acme.example.com"),
		row("Industry", "Software Development"),
		row("Company size", "51-200 employees"),
		row("Headquarters", "San Francisco, CA"),
		row("Type", "Privately Held"),
		row("Founded", "1999"),
		row("Specialties", "anvils, rockets"),
	}
}

const topCard = `
<section class="top-card-layout">
  <div class="top-card-layout__entity-image-container"><img data-delayed-url="https://media.example.com/acme.png" alt="Acme"></div>
  <div class="top-card-layout__entity-info">
    <h1> Acme Corp </h1>
    <h3 class="top-card-layout__first-subline"><span>Software Development</span> 12,345 followers</h3>
  </div>
  <a class="face-pile__cta" href="#">See all 1,234 employees on LinkedIn</a>
</section>`

const fundingAside = `
<section class="aside-section-container">
  <div>
    <a class="link-styled" href="#"><span class="before:middot">3 total rounds</span></a>
    <div class="my-2"><a class="link-styled" href="#">Series B<time class="before:middot">Jan 5, 2023</time></a></div>
    <p class="text-display-lg"> US$ 12.0M </p>
  </div>
</section>`

func companyPage(header string, rows []string) []byte {
	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString(header)
	b.WriteString(`<section class="core-section-container"><div class="core-section-container__content">`)
	b.WriteString("<p> We build anvils. </p><dl>")
	for _, r := range rows {
		b.WriteString(r)
	}
	b.WriteString("</dl></div></section>")
	b.WriteString(fundingAside)
	b.WriteString("</body></html>")
	return []byte(b.String())
}

func extract(t *testing.T, policy models.LabelPolicy, body []byte) *models.CompanyRecord {
	t.Helper()
	return New(policy).Extract(&models.Document{URL: testURL, Index: 1, Total: 1, Body: body})
}

func assertText(t *testing.T, record *models.CompanyRecord, field, want string) {
	t.Helper()
	v, _ := record.Get(field)
	got, ok := v.AsText()
	if !ok || got != want {
		t.Errorf("%s = %v, want %q", field, v, want)
	}
}

func assertInt(t *testing.T, record *models.CompanyRecord, field string, want int64) {
	t.Helper()
	v, _ := record.Get(field)
	got, ok := v.AsInt()
	if !ok || got != want {
		t.Errorf("%s = %v, want %d", field, v, want)
	}
}

func assertNotFound(t *testing.T, record *models.CompanyRecord, fields ...string) {
	t.Helper()
	for _, field := range fields {
		if v, _ := record.Get(field); !v.IsNotFound() {
			t.Errorf("%s 应为not-found, 得到 %v", field, v)
		}
	}
}

func TestExtract_FullPage(t *testing.T) {
	record := extract(t, models.PolicyPositional, companyPage(topCard, fullRows()))

	assertText(t, record, models.FieldCompanyName, "Acme Corp")
	assertInt(t, record, models.FieldFollowersCount, 12345)
	assertText(t, record, models.FieldLogoURL, "https://media.example.com/acme.png")
	assertText(t, record, models.FieldAboutUs, "We build anvils.")
	assertInt(t, record, models.FieldNumOfEmployees, 1234)
	assertText(t, record, models.FieldWebsite, "https://acme.example.com")
	assertText(t, record, models.FieldIndustry, "Software Development")
	assertText(t, record, models.FieldCompanySize, "51-200")
	assertText(t, record, models.FieldHeadquarters, "San Francisco, CA")
	assertText(t, record, models.FieldType, "Privately Held")
	assertText(t, record, models.FieldFounded, "1999")
	assertText(t, record, models.FieldSpecialties, "anvils, rockets")
	assertText(t, record, models.FieldFunding, "US$ 12.0M")
	assertInt(t, record, models.FieldFundingTotalRounds, 3)
	assertText(t, record, models.FieldFundingOption, "Series B")
	assertText(t, record, models.FieldLastFundingRound, "Jan 5, 2023")

	if n := len(record.Fields()); n != len(models.RecordFields) {
		t.Errorf("不应产生动态字段, 字段数 %d", n)
	}
}

func TestExtract_ShortBlockKeepsEarlierFields(t *testing.T) {
	record := extract(t, models.PolicyPositional, companyPage(topCard, fullRows()[:3]))

	assertText(t, record, models.FieldWebsite, "https://acme.example.com")
	assertText(t, record, models.FieldIndustry, "Software Development")
	assertText(t, record, models.FieldCompanySize, "51-200")
	assertNotFound(t, record,
		models.FieldHeadquarters,
		models.FieldType,
		models.FieldFounded,
		models.FieldSpecialties,
		models.FieldFunding,
		models.FieldFundingTotalRounds,
		models.FieldFundingOption,
		models.FieldLastFundingRound,
	)
	// 顶部卡片不受影响
	assertText(t, record, models.FieldCompanyName, "Acme Corp")
}

func TestExtract_MissingFollowers(t *testing.T) {
	header := strings.Replace(topCard, " 12,345 followers", "", 1)
	record := extract(t, models.PolicyPositional, companyPage(header, fullRows()))

	assertNotFound(t, record, models.FieldFollowersCount)
	assertText(t, record, models.FieldCompanyName, "Acme Corp")
	assertText(t, record, models.FieldFunding, "US$ 12.0M")
}

func TestExtract_HeadquartersLabelMismatch(t *testing.T) {
	rows := fullRows()
	rows[3] = row("Location", "Somewhere")
	record := extract(t, models.PolicyPositional, companyPage(topCard, rows))

	assertNotFound(t, record, models.FieldHeadquarters)
	assertText(t, record, models.FieldType, "Privately Held")
	assertText(t, record, models.FieldFounded, "1999")
}

func TestExtract_SixthRowSpecialties(t *testing.T) {
	rows := append(fullRows()[:5], row("Specialties", "anvils"))

	t.Run("positional", func(t *testing.T) {
		record := extract(t, models.PolicyPositional, companyPage(topCard, rows))
		assertNotFound(t, record, models.FieldFounded, models.FieldSpecialties)
		assertText(t, record, models.FieldFunding, "US$ 12.0M")
	})

	t.Run("strict", func(t *testing.T) {
		record := extract(t, models.PolicyStrict, companyPage(topCard, rows))
		assertNotFound(t, record, models.FieldFounded)
		assertText(t, record, models.FieldSpecialties, "anvils")
	})
}

func TestExtract_UnknownLabelBecomesExtra(t *testing.T) {
	rows := append(fullRows()[:5], row("Year", "2001"))
	record := extract(t, models.PolicyPositional, companyPage(topCard, rows))

	assertText(t, record, "year", "2001")
	assertNotFound(t, record, models.FieldFounded, models.FieldSpecialties)

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.HasSuffix(string(data), `"year":"2001"}`) {
		t.Errorf("动态字段应位于末尾: %s", data)
	}
}

func TestExtract_FoundedWithoutSpecialties(t *testing.T) {
	rows := append(fullRows()[:6], row("Locations", "2"))
	record := extract(t, models.PolicyPositional, companyPage(topCard, rows))

	assertText(t, record, models.FieldFounded, "1999")
	assertNotFound(t, record, models.FieldSpecialties)
	assertInt(t, record, models.FieldFundingTotalRounds, 3)
}

func TestExtract_StrictShortBlock(t *testing.T) {
	record := extract(t, models.PolicyStrict, companyPage(topCard, fullRows()[:2]))

	assertText(t, record, models.FieldIndustry, "Software Development")
	assertNotFound(t, record, models.FieldCompanySize, models.FieldHeadquarters, models.FieldType)
	assertText(t, record, models.FieldFunding, "US$ 12.0M")
	assertText(t, record, models.FieldLastFundingRound, "Jan 5, 2023")
}

func TestExtract_StrictLabelMismatch(t *testing.T) {
	rows := fullRows()
	// 缺少Headquarters行,后续行整体前移
	rows = append(rows[:3], rows[4:]...)
	record := extract(t, models.PolicyStrict, companyPage(topCard, rows))

	assertNotFound(t, record, models.FieldHeadquarters, models.FieldType)
	assertText(t, record, models.FieldSpecialties, "anvils, rockets")
}

func TestExtract_Idempotent(t *testing.T) {
	body := companyPage(topCard, fullRows())
	ex := New(models.PolicyPositional)

	first, err := json.Marshal(ex.Extract(&models.Document{URL: testURL, Body: body}))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	second, err := json.Marshal(ex.Extract(&models.Document{URL: testURL, Body: body}))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(first) != string(second) {
		t.Errorf("同一文档两次提取结果不同:\n%s\n%s", first, second)
	}
}

func TestExtract_EmptyDocument(t *testing.T) {
	record := extract(t, models.PolicyPositional, []byte("<html><body></body></html>"))
	assertNotFound(t, record, models.RecordFields...)
}

func TestParseEmployeeCount(t *testing.T) {
	tests := []struct {
		text    string
		want    int64
		wantErr bool
	}{
		{"See all 1,234 employees on LinkedIn", 1234, false},
		{"See all 12 employees", 12, false},
		{"View 1,234,567 employees", 1234567, false},
		{"See all employees", 0, true},
	}
	for _, tt := range tests {
		got, err := parseEmployeeCount(tt.text)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseEmployeeCount(%q) = %d, %v", tt.text, got, err)
		}
	}
}
