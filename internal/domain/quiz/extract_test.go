package quiz_test

import (
	"reflect"
	"testing"

	"telegram-quizbot/internal/domain/quiz"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name           string
		text           string
		want           []quiz.Question
		wantSkips      int
		wantUnresolved int
	}{
		{
			name: "numberedBlockWithLetterAnswer",
			text: "1. What is 2+2?\na) 3\nb) 4\nc) 5\nAnswer: b",
			want: []quiz.Question{
				{Text: "What is 2+2?", Options: []string{"3", "4", "5"}, Correct: 1},
			},
		},
		{
			name: "freeTextAnswerMatchedByOptionText",
			text: "1. What is 2+2?\na) 3\nb) 4\nc) 5\nAnswer: 4",
			want: []quiz.Question{
				{Text: "What is 2+2?", Options: []string{"3", "4", "5"}, Correct: 1},
			},
		},
		{
			name:      "singleOptionBlockDropped",
			text:      "a) only one",
			want:      nil,
			wantSkips: 1,
		},
		{
			name: "twoBlocksSeparatedByBlankLine",
			text: "First question?\na) yes\nb) no\nAnswer: a\n\nSecond question?\na) up\nb) down\nAnswer: b",
			want: []quiz.Question{
				{Text: "First question?", Options: []string{"yes", "no"}, Correct: 0},
				{Text: "Second question?", Options: []string{"up", "down"}, Correct: 1},
			},
		},
		{
			name: "nonMonotonicLetteringKeepsFileOrder",
			text: "Pick one\na) alpha\nc) gamma\nb) beta\nAnswer: c",
			want: []quiz.Question{
				{Text: "Pick one", Options: []string{"alpha", "gamma", "beta"}, Correct: 2},
			},
		},
		{
			name: "missingAnswerLineLeavesCorrectAbsent",
			text: "No answer here?\na) one\nb) two",
			want: []quiz.Question{
				{Text: "No answer here?", Options: []string{"one", "two"}, Correct: quiz.NoAnswer},
			},
			wantUnresolved: 1,
		},
		{
			name: "answerLetterOutOfRangeEmittedUnresolved",
			text: "Questionable?\na) one\nb) two\nAnswer: e",
			want: []quiz.Question{
				{Text: "Questionable?", Options: []string{"one", "two"}, Correct: quiz.NoAnswer},
			},
			wantUnresolved: 1,
		},
		{
			name: "answerWithLetterAndOptionText",
			text: "Capital of France?\na) London\nb) Paris\nAnswer: b) Paris",
			want: []quiz.Question{
				{Text: "Capital of France?", Options: []string{"London", "Paris"}, Correct: 1},
			},
		},
		{
			name: "markdownEmphasisOnAnswerLine",
			text: "Pick\na) x\nb) y\n*Answer:* a",
			want: []quiz.Question{
				{Text: "Pick", Options: []string{"x", "y"}, Correct: 0},
			},
		},
		{
			name: "freeTextAnswerSingleWordNotMistakenForLetter",
			text: "Capital of France?\na) London\nb) Paris\nAnswer: Paris",
			want: []quiz.Question{
				{Text: "Capital of France?", Options: []string{"London", "Paris"}, Correct: 1},
			},
		},
		{
			name: "multilineQuestionTextJoinedWithSpace",
			text: "What is\nthe capital of France?\na) Paris\nb) London\nAnswer: a",
			want: []quiz.Question{
				{Text: "What is the capital of France?", Options: []string{"Paris", "London"}, Correct: 0},
			},
		},
		{
			name: "multilineOptionJoinedWithSpace",
			text: "Pick the long one\na) short\nb) a very long option\nthat wraps\nAnswer: b",
			want: []quiz.Question{
				{Text: "Pick the long one", Options: []string{"short", "a very long option that wraps"}, Correct: 1},
			},
		},
		{
			name: "mixedLineEndings",
			text: "1. Mixed?\r\na) yes\r\nb) no\r\nAnswer: a",
			want: []quiz.Question{
				{Text: "Mixed?", Options: []string{"yes", "no"}, Correct: 0},
			},
		},
		{
			name: "qPrefixedNumberingStripped",
			text: "Q1) Prefixed?\na) yes\nb) no\nAnswer: a",
			want: []quiz.Question{
				{Text: "Prefixed?", Options: []string{"yes", "no"}, Correct: 0},
			},
		},
		{
			name: "bulletQuestionStart",
			text: "- Bulleted?\na) yes\nb) no\nAnswer: b",
			want: []quiz.Question{
				{Text: "Bulleted?", Options: []string{"yes", "no"}, Correct: 1},
			},
		},
		{
			name: "duplicateQuestionTextDropped",
			text: "Same?\na) x\nb) y\nAnswer: a\n\nSame?\na) x\nb) y\nAnswer: b",
			want: []quiz.Question{
				{Text: "Same?", Options: []string{"x", "y"}, Correct: 0},
			},
			wantSkips: 1,
		},
		{
			name: "answerLineClosesBlockWithoutBlankSeparator",
			text: "First?\na) yes\nb) no\nAnswer: a\nSecond?\na) up\nb) down\nAnswer: b",
			want: []quiz.Question{
				{Text: "First?", Options: []string{"yes", "no"}, Correct: 0},
				{Text: "Second?", Options: []string{"up", "down"}, Correct: 1},
			},
		},
		{
			name: "freeTextAnswerFirstMatchWins",
			text: "Twins?\na) same\nb) same\nAnswer: same",
			want: []quiz.Question{
				{Text: "Twins?", Options: []string{"same", "same"}, Correct: 0},
			},
		},
		{
			name:      "plainParagraphWithoutOptionsSkipped",
			text:      "Just some prose with no options at all.",
			want:      nil,
			wantSkips: 1,
		},
		{
			name: "emptyInput",
			text: "",
			want: nil,
		},
		{
			name: "blankLinesOnly",
			text: "\n\n\n",
			want: nil,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, report := quiz.Extract(tc.text)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Extract() questions = %#v, want %#v", got, tc.want)
			}
			if report.SkipCount() != tc.wantSkips {
				t.Fatalf("Extract() skips = %d (%v), want %d", report.SkipCount(), report.Skipped, tc.wantSkips)
			}
			if report.Unresolved != tc.wantUnresolved {
				t.Fatalf("Extract() unresolved = %d, want %d", report.Unresolved, tc.wantUnresolved)
			}
		})
	}
}

func TestExtractMinimumOptionsInvariant(t *testing.T) {
	t.Parallel()

	// Нарочно рваный вход: обрывки, одиночные варианты, валидный блок посередине.
	text := "intro line\n\na) lonely\n\nReal question?\na) one\nb) two\nAnswer: a\n\nb) stray"
	got, _ := quiz.Extract(text)

	if len(got) != 1 {
		t.Fatalf("Extract() = %d questions, want 1", len(got))
	}
	for _, q := range got {
		if len(q.Options) < 2 {
			t.Fatalf("emitted question with %d options: %#v", len(q.Options), q)
		}
		if !q.Valid() {
			t.Fatalf("emitted invalid question: %#v", q)
		}
	}
}

func TestExtractNeverDefaultsAnswerToZero(t *testing.T) {
	t.Parallel()

	got, report := quiz.Extract("Q?\na) one\nb) two")
	if len(got) != 1 {
		t.Fatalf("Extract() = %d questions, want 1", len(got))
	}
	if got[0].Correct != quiz.NoAnswer {
		t.Fatalf("Correct = %d, want NoAnswer", got[0].Correct)
	}
	if got[0].HasAnswer() {
		t.Fatal("HasAnswer() = true for question without answer line")
	}
	if report.Unresolved != 1 {
		t.Fatalf("Unresolved = %d, want 1", report.Unresolved)
	}
}
