package mockbackend

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/orchestrator"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/protocol"
)

// pageSize is the number of cards per answer.
const pageSize = 2

// Canned answers.
const (
	AnswerGreeting   = "안녕하세요! 영유아 복지 챗봇입니다. 무엇을 도와드릴까요?"
	AnswerThanks     = "도움이 되어 기쁩니다! 😊"
	AnswerExit       = "네, 알겠습니다. 언제든 다시 찾아주세요! 😊"
	AnswerReset      = "대화를 초기화했습니다. 무엇이 궁금하신가요? 🤖"
	AnswerNoMore     = "더 이상 표시할 결과가 없습니다."
	AnswerJobFailed  = "답변을 만드는 중 오류가 발생했습니다. 잠시 후 다시 시도해 주세요."
	answerNoResultMD = "조건에 맞는 복지 정보를 찾지 못했어요. 😥\n\n" +
		"- 지역 이름을 함께 적어 보세요 (예: **부산 기저귀**)\n" +
		"- 다른 표현으로 다시 질문해 보세요\n"
)

const (
	footerMore = "<hr><p>🔍 <b>아직 결과가 더 남아있습니다.</b> '더 보여줘' 또는 '다음'을 입력해 보세요.</p>"
	footerDone = "<hr><p>✅ <b>모든 결과를 확인했습니다.</b></p>"
)

// shortQuestionRunes is the length below which a question without a region
// is answered with a region choice.
const shortQuestionRunes = 4

func intPtr(n int) *int { return &n }

// reply answers everything that does not need a search: pagination, small
// talk and clarification.
func (s *Server) reply(question string, req protocol.ChatRequest) (protocol.ChatResponse, bool) {
	if orchestrator.IsContinuation(question) && len(req.LastResultIDs) > 0 {
		return s.nextPage(req), true
	}

	compact := strings.ReplaceAll(question, " ", "")
	switch {
	case strings.Contains(compact, "고마"):
		return complete(AnswerThanks), true
	case strings.Contains(compact, "안녕"):
		return complete(AnswerGreeting), true
	case strings.Contains(compact, "그만"):
		return complete(AnswerExit), true
	case strings.Contains(compact, "처음으로"), strings.Contains(compact, "초기화"):
		return complete(AnswerReset), true
	}

	if _, ok := s.catalog.RegionIn(question); !ok && utf8.RuneCountInString(compact) < shortQuestionRunes {
		return protocol.ChatResponse{
			Status:     protocol.StatusClarify,
			Answer:     fmt.Sprintf("'%s' 정보를 어느 지역 기준으로 찾아드릴까요?", question),
			Options:    s.catalog.Regions(),
			TotalFound: intPtr(0),
		}, true
	}
	return protocol.ChatResponse{}, false
}

func complete(answer string) protocol.ChatResponse {
	return protocol.ChatResponse{Status: protocol.StatusComplete, Answer: answer, TotalFound: intPtr(0)}
}

// nextPage renders the next cards of a previous result list.
func (s *Server) nextPage(req protocol.ChatRequest) protocol.ChatResponse {
	ids := req.LastResultIDs
	start := max(req.ShownCount, 0)
	if start >= len(ids) {
		return protocol.ChatResponse{
			Status:        protocol.StatusComplete,
			Answer:        AnswerNoMore,
			LastResultIDs: ids,
			TotalFound:    intPtr(len(ids)),
		}
	}
	end := min(start+pageSize, len(ids))
	programs := s.catalog.Get(ids[start:end])

	var sb strings.Builder
	fmt.Fprintf(&sb, "<p>🔎 <b>추가 정보 (%d~%d번째)</b></p><hr>", start+1, start+len(programs))
	sb.WriteString(RenderCards(programs))
	if len(ids) > end {
		sb.WriteString(footerMore)
	} else {
		sb.WriteString(footerDone)
	}
	return protocol.ChatResponse{
		Status:        protocol.StatusComplete,
		Answer:        sb.String(),
		LastResultIDs: ids,
		TotalFound:    intPtr(len(ids)),
		ShownCount:    intPtr(end),
	}
}

// search builds the answer for a new question.
func (s *Server) search(question, region string) protocol.JobResult {
	if strings.Contains(strings.ToLower(question), "error") {
		return protocol.JobResult{Status: protocol.StatusError, Answer: AnswerJobFailed}
	}

	ids := s.catalog.Search(question, region)
	if len(ids) == 0 {
		return protocol.JobResult{Status: protocol.StatusComplete, Answer: answerNoResultMD, TotalFound: intPtr(0)}
	}

	end := min(pageSize, len(ids))
	var sb strings.Builder
	fmt.Fprintf(&sb, "<p>🔎 <b>총 %d건의 복지 정보를 찾았습니다.</b></p><hr>", len(ids))
	sb.WriteString(RenderCards(s.catalog.Get(ids[:end])))
	if len(ids) > end {
		sb.WriteString(footerMore)
	} else {
		sb.WriteString(footerDone)
	}
	return protocol.JobResult{
		Status:        protocol.StatusComplete,
		Answer:        sb.String(),
		LastResultIDs: ids,
		TotalFound:    intPtr(len(ids)),
	}
}

func chatResponse(r protocol.JobResult) protocol.ChatResponse {
	return protocol.ChatResponse{
		Status:        r.Status,
		Answer:        r.Answer,
		LastResultIDs: r.LastResultIDs,
		TotalFound:    r.TotalFound,
		ShownCount:    r.ShownCount,
	}
}
