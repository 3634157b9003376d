// Package command maps a speech transcript to a fixed calendar action by
// local keyword matching. Anything it cannot classify is left to the
// remote intent service.
package command

import (
	"regexp"
	"strings"
	"time"
)

type Action string

const (
	AddEvent        Action = "ADD_EVENT"
	UpdateEvent     Action = "UPDATE_EVENT"
	GoToToday       Action = "GO_TO_TODAY"
	NextMonth       Action = "NEXT_MONTH"
	PreviousMonth   Action = "PREVIOUS_MONTH"
	ViewMonth       Action = "VIEW_MONTH"
	ViewWeek        Action = "VIEW_WEEK"
	ViewDay         Action = "VIEW_DAY"
	Search          Action = "SEARCH"
	SummarizeEvents Action = "SUMMARIZE_EVENTS"
)

// Command is one entry of the keyword table.
type Command struct {
	Action      Action
	Description string
	patterns    []*regexp.Regexp
}

func newCommand(action Action, description string, patterns ...string) Command {
	c := Command{Action: action, Description: description}
	for _, p := range patterns {
		c.patterns = append(c.patterns, regexp.MustCompile(`(?i)`+p))
	}
	return c
}

// First match wins, so "오늘 일정" resolves to GO_TO_TODAY.
var commands = []Command{
	newCommand(AddEvent, "새 일정 추가 (AI 대화형)",
		`일정\s*추가`, `새\s*일정`, `이벤트\s*추가`, `\badd\s+(an?\s+)?event\b`, `\bnew\s+event\b`),
	newCommand(UpdateEvent, "일정 수정 (AI 대화형)",
		`일정\s*수정`, `일정\s*변경`, `일정\s*편집`, `이벤트\s*수정`, `\b(edit|change|update)\s+(the\s+)?event\b`),
	newCommand(GoToToday, "오늘 날짜로 이동",
		`오늘`, `투데이`, `\btoday\b`),
	newCommand(NextMonth, "다음 달로 이동",
		`다음\s*달`, `다음\s*월`, `\bnext\s+month\b`),
	newCommand(PreviousMonth, "이전 달로 이동",
		`이전\s*달`, `이전\s*월`, `지난\s*달`, `\b(previous|last)\s+month\b`),
	newCommand(ViewMonth, "월간 보기로 전환",
		`월간\s*보기`, `월\s*보기`, `\bmonth\s+view\b`),
	newCommand(ViewWeek, "주간 보기로 전환",
		`주간\s*보기`, `주\s*보기`, `\bweek\s+view\b`),
	newCommand(ViewDay, "일간 보기로 전환",
		`일간\s*보기`, `일\s*보기`, `\bday\s+view\b`),
	newCommand(Search, "일정 검색 (AI 자연어 검색)",
		`검색`, `찾기`, `찾아\s*줘`, `\b(search|find)\b`),
	newCommand(SummarizeEvents, "일정 요약 (AI 지능형 요약)",
		`일정\s*요약`, `오늘\s*일정`, `이번\s*주\s*일정`, `앞으로`, `다가오는\s*일정`, `\b(summary|summarize|upcoming)\b`),
}

// Commands returns the keyword table, e.g. for a help panel.
func Commands() []Command {
	out := make([]Command, len(commands))
	copy(out, commands)
	return out
}

// Parse returns the first action whose pattern matches the transcript.
func Parse(transcript string) (Action, bool) {
	normalized := strings.ToLower(strings.TrimSpace(transcript))
	if normalized == "" {
		return "", false
	}
	for _, c := range commands {
		for _, p := range c.patterns {
			if p.MatchString(normalized) {
				return c.Action, true
			}
		}
	}
	return "", false
}

// IsAddEvent reports whether the transcript asks to add an event.
func IsAddEvent(transcript string) bool {
	a, ok := Parse(transcript)
	return ok && a == AddEvent
}

// Navigate applies a navigation action to a 0-based (year, month) and
// returns the normalized result. Non-navigation actions leave it unchanged.
func Navigate(action Action, year, month int, now time.Time) (int, int) {
	switch action {
	case NextMonth:
		month++
	case PreviousMonth:
		month--
	case GoToToday:
		return now.Year(), int(now.Month()) - 1
	}
	t := time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), int(t.Month()) - 1
}
