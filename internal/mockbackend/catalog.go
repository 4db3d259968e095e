package mockbackend

import (
	"fmt"
	"html"
	"sort"
	"strings"
)

// Program is one welfare program of the demo catalog.
type Program struct {
	ID       string
	Category string
	Title    string
	Regions  []string
	Keywords []string
	Lines    []string
	URL      string
}

// Nationwide reports whether the program applies in every region.
func (p Program) Nationwide() bool {
	return len(p.Regions) == 0
}

func (p Program) inRegion(region string) bool {
	if p.Nationwide() || region == "" {
		return true
	}
	for _, r := range p.Regions {
		if r == region {
			return true
		}
	}
	return false
}

func (p Program) score(tokens []string) int {
	hay := strings.ToLower(p.Category + " " + p.Title + " " + strings.Join(p.Keywords, " "))
	n := 0
	for _, t := range tokens {
		if strings.Contains(hay, strings.ToLower(t)) {
			n++
		}
	}
	return n
}

// Catalog is the searchable program list.
type Catalog struct {
	programs []Program
	byID     map[string]Program
	regions  []string
}

// NewCatalog indexes programs. regions are the names accepted as a location
// in questions.
func NewCatalog(programs []Program, regions []string) *Catalog {
	c := &Catalog{
		programs: programs,
		byID:     make(map[string]Program, len(programs)),
		regions:  append([]string(nil), regions...),
	}
	for _, p := range programs {
		c.byID[p.ID] = p
	}
	return c
}

// DefaultCatalog returns the built-in demo data.
func DefaultCatalog() *Catalog {
	return NewCatalog(defaultPrograms, defaultRegions)
}

// Regions returns the known regions, used as clarification options.
func (c *Catalog) Regions() []string {
	return append([]string(nil), c.regions...)
}

// RegionIn returns the first known region mentioned in q.
func (c *Catalog) RegionIn(q string) (string, bool) {
	for _, r := range c.regions {
		if strings.Contains(q, r) {
			return r, true
		}
	}
	return "", false
}

// Search returns the ids of programs available in region that match any
// word of q, best match first. A question made only of the region name
// matches everything there.
func (c *Catalog) Search(q, region string) []string {
	var tokens []string
	for _, t := range strings.Fields(q) {
		t = strings.TrimSpace(strings.ReplaceAll(t, region, ""))
		if len([]rune(t)) >= 2 {
			tokens = append(tokens, t)
		}
	}

	type hit struct {
		id    string
		score int
	}
	var hits []hit
	for _, p := range c.programs {
		if !p.inRegion(region) {
			continue
		}
		s := p.score(tokens)
		if len(tokens) > 0 && s == 0 {
			continue
		}
		hits = append(hits, hit{p.ID, s})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.id
	}
	return ids
}

// Get returns the programs with the given ids, skipping unknown ones.
func (c *Catalog) Get(ids []string) []Program {
	out := make([]Program, 0, len(ids))
	for _, id := range ids {
		if p, ok := c.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// RenderCards builds result card markup in the format the client expects.
func RenderCards(programs []Program) string {
	var sb strings.Builder
	for _, p := range programs {
		e := html.EscapeString
		sb.WriteString(`<div class="result-card">`)
		fmt.Fprintf(&sb, `<div class="card-header-badge">%s</div>`, e(p.Category))
		fmt.Fprintf(&sb, `<h3 class="card-title">%s</h3>`, e(p.Title))
		sb.WriteString(`<div class="card-body"><ul>`)
		for _, l := range p.Lines {
			fmt.Fprintf(&sb, `<li>%s</li>`, e(l))
		}
		sb.WriteString(`</ul></div><div class="card-footer">`)
		if p.URL != "" {
			fmt.Fprintf(&sb, `<a href="%s" target="_blank" class="detail-link">자세히 보기</a>`, e(p.URL))
		}
		fmt.Fprintf(&sb, `<button class="card-share-btn" data-copy="%s">공유하기</button>`, e(shareText(p)))
		sb.WriteString(`</div></div>`)
	}
	return sb.String()
}

func shareText(p Program) string {
	var sb strings.Builder
	sb.WriteString("[" + p.Category + "] " + p.Title)
	for _, l := range p.Lines {
		sb.WriteString("\n- " + l)
	}
	if p.URL != "" {
		sb.WriteString("\n" + p.URL)
	}
	return sb.String()
}

var defaultRegions = []string{"서울", "부산", "대구", "인천", "광주", "대전"}

var defaultPrograms = []Program{
	{
		ID: "p-diaper", Category: "양육", Title: "저소득층 기저귀 지원",
		Keywords: []string{"기저귀", "diaper", "영아"},
		Lines:    []string{"대상: 만 2세 미만 영아 가구", "지원: 월 9만원 바우처"},
		URL:      "https://www.bokjiro.go.kr/diaper",
	},
	{
		ID: "p-formula", Category: "양육", Title: "조제분유 지원",
		Keywords: []string{"분유", "formula", "기저귀", "영아"},
		Lines:    []string{"대상: 기저귀 지원 대상 중 모유수유 불가 가구", "지원: 월 11만원"},
		URL:      "https://www.bokjiro.go.kr/formula",
	},
	{
		ID: "p-first-meet", Category: "출산", Title: "첫만남이용권",
		Keywords: []string{"출산", "출생", "바우처", "birth"},
		Lines:    []string{"대상: 출생아", "지원: 첫째 200만원, 둘째 이상 300만원"},
		URL:      "https://www.bokjiro.go.kr/first-meet",
	},
	{
		ID: "p-parent-pay", Category: "양육", Title: "부모급여",
		Keywords: []string{"부모급여", "수당", "양육", "allowance"},
		Lines:    []string{"대상: 0~1세 아동 부모", "지원: 0세 월 100만원, 1세 월 50만원"},
		URL:      "https://www.bokjiro.go.kr/parent-pay",
	},
	{
		ID: "p-child-allowance", Category: "양육", Title: "아동수당",
		Keywords: []string{"아동수당", "수당", "allowance"},
		Lines:    []string{"대상: 만 8세 미만 아동", "지원: 월 10만원"},
	},
	{
		ID: "p-busan-taxi", Category: "의료", Title: "부산 임산부 교통비 지원", Regions: []string{"부산"},
		Keywords: []string{"임산부", "교통비", "임신"},
		Lines:    []string{"대상: 부산 거주 임산부", "지원: 70만원 바우처"},
		URL:      "https://www.busan.go.kr/taxi",
	},
	{
		ID: "p-busan-diaper", Category: "양육", Title: "부산 다자녀 기저귀 추가 지원", Regions: []string{"부산"},
		Keywords: []string{"기저귀", "다자녀"},
		Lines:    []string{"대상: 부산 거주 셋째 이상 영아", "지원: 월 3만원 추가"},
	},
	{
		ID: "p-seoul-care", Category: "보육", Title: "서울형 아이돌봄비", Regions: []string{"서울"},
		Keywords: []string{"돌봄", "아이돌봄", "보육"},
		Lines:    []string{"대상: 서울 거주 24~36개월 아동 가구", "지원: 월 30만원"},
		URL:      "https://www.seoul.go.kr/care",
	},
	{
		ID: "p-seoul-postpartum", Category: "의료", Title: "서울 산후조리경비", Regions: []string{"서울"},
		Keywords: []string{"산후조리", "출산", "산모"},
		Lines:    []string{"대상: 서울 거주 출산 가정", "지원: 출생아 1인당 100만원 바우처"},
	},
	{
		ID: "p-daegu-daycare", Category: "보육", Title: "대구 어린이집 필요경비 지원", Regions: []string{"대구"},
		Keywords: []string{"어린이집", "보육"},
		Lines:    []string{"대상: 대구 어린이집 재원 아동", "지원: 월 최대 5만원"},
	},
	{
		ID: "p-incheon-birth", Category: "출산", Title: "인천 출생축하금", Regions: []string{"인천"},
		Keywords: []string{"출산", "출생", "축하금"},
		Lines:    []string{"대상: 인천 출생 신고 아동", "지원: 100만원"},
	},
	{
		ID: "p-vaccine", Category: "의료", Title: "어린이 국가예방접종",
		Keywords: []string{"예방접종", "백신", "vaccine"},
		Lines:    []string{"대상: 만 12세 이하 어린이", "지원: 필수 예방접종 무료"},
		URL:      "https://nip.kdca.go.kr",
	},
}
