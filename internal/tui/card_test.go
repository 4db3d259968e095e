package tui

import (
	"strings"
	"testing"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/i18n"
)

const sampleCards = `<p>부산 지역 결과입니다.</p>
<div class="result-card">
  <div class="card-header-badge">양육</div>
  <h3 class="card-title">기저귀 지원</h3>
  <div class="card-body"><ul>
    <li>대상: 만 2세 미만 영아</li>
    <li>지원: 월 <b>9만원</b></li>
  </ul></div>
  <div class="card-footer">
    <a href="https://example.org/diaper" target="_blank" class="detail-link">자세히 보기</a>
    <button class="card-share-btn" data-copy="기저귀 지원 - 월 9만원">공유하기</button>
  </div>
</div>
<div class="result-card">
  <h3 class="card-title">첫만남이용권</h3>
  <div class="card-body">출생아 1인당 200만원</div>
  <div class="card-footer"><button class="card-share-btn" data-copy="첫만남이용권">공유하기</button></div>
</div>`

func TestParseCards_Korean(t *testing.T) {
	t.Parallel()
	set, err := ParseCards(sampleCards, i18n.KO, i18n.Card{Detail: "View Details", Share: "Share"})
	if err != nil {
		t.Fatalf("ParseCards() error = %v", err)
	}
	if len(set.Cards) != 2 {
		t.Fatalf("got %d cards, want 2", len(set.Cards))
	}
	if len(set.Lead) != 1 || set.Lead[0] != "부산 지역 결과입니다." {
		t.Errorf("Lead = %q", set.Lead)
	}

	c := set.Cards[0]
	if c.Badge != "양육" || c.Title != "기저귀 지원" {
		t.Errorf("badge/title = %q/%q", c.Badge, c.Title)
	}
	if len(c.Lines) != 2 || c.Lines[1] != "지원: 월 9만원" {
		t.Errorf("Lines = %q", c.Lines)
	}
	if c.DetailURL != "https://example.org/diaper" {
		t.Errorf("DetailURL = %q", c.DetailURL)
	}
	if c.DetailLabel != "자세히 보기" || c.ShareLabel != "공유하기" {
		t.Errorf("ko labels replaced: %q %q", c.DetailLabel, c.ShareLabel)
	}
	if c.ShareText != "기저귀 지원 - 월 9만원" {
		t.Errorf("ShareText = %q", c.ShareText)
	}

	if got := set.Cards[1].Lines; len(got) != 1 || got[0] != "출생아 1인당 200만원" {
		t.Errorf("body without list = %q", got)
	}
}

func TestParseCards_LocalizesButtons(t *testing.T) {
	t.Parallel()
	set, err := ParseCards(sampleCards, i18n.VI, i18n.Card{Detail: "Xem chi tiết", Share: "Chia sẻ"})
	if err != nil {
		t.Fatalf("ParseCards() error = %v", err)
	}
	if got := set.Cards[0].DetailLabel; got != "Xem chi tiết" {
		t.Errorf("DetailLabel = %q", got)
	}
	for i, c := range set.Cards {
		if c.ShareLabel != "Chia sẻ" {
			t.Errorf("card %d ShareLabel = %q", i, c.ShareLabel)
		}
	}
	if set.Cards[1].DetailLabel != "" {
		t.Errorf("card without link got label %q", set.Cards[1].DetailLabel)
	}
}

func TestPlainCard(t *testing.T) {
	t.Parallel()
	set, _ := ParseCards(sampleCards, i18n.EN, i18n.Card{Detail: "View Details", Share: "Share"})
	out := plainCard(set.Cards[0], 3)
	for _, want := range []string{"[양육] 기저귀 지원", "• 대상: 만 2세 미만 영아", "View Details: https://example.org/diaper", "Share: /share 3"} {
		if !strings.Contains(out, want) {
			t.Errorf("plainCard() missing %q in\n%s", want, out)
		}
	}
}

func TestAnswerText(t *testing.T) {
	t.Parallel()
	if got := answerText("**plain** answer", i18n.KO, i18n.Card{}); got != "**plain** answer" {
		t.Errorf("markdown answer changed: %q", got)
	}
	got := answerText(sampleCards, i18n.KO, i18n.Card{})
	for _, want := range []string{"부산 지역 결과입니다.", "기저귀 지원 - 월 9만원", "첫만남이용권"} {
		if !strings.Contains(got, want) {
			t.Errorf("answerText() missing %q in %q", want, got)
		}
	}
}
