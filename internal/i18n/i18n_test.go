package i18n

import (
	"testing"

	"golang.org/x/text/language"

	"timeblock/internal/domain"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		accept string
		want   language.Tag
	}{
		{accept: "", want: language.English},
		{accept: "ru-RU,ru;q=0.9,en;q=0.8", want: language.Russian},
		{accept: "zh-CN", want: language.Chinese},
		{accept: "de-DE", want: language.English},
		{accept: "en-GB", want: language.English},
		{accept: "%%%", want: language.English},
	}
	for _, tt := range tests {
		if got := Match(tt.accept); got != tt.want {
			t.Fatalf("Match(%q) = %s, want %s", tt.accept, got, tt.want)
		}
	}
}

func TestReason_EveryReasonTranslated(t *testing.T) {
	for _, tag := range Supported() {
		for _, r := range domain.Reasons {
			got := Reason(tag, r)
			if got == "" || got == reasonKey(r) {
				t.Fatalf("Reason(%s, %s) = %q, want a translation", tag, r, got)
			}
		}
	}
}

func TestReason_Localized(t *testing.T) {
	if got := Reason(language.English, domain.ReasonEventOverlap); got != "Event overlaps with an existing event" {
		t.Fatalf("en = %q", got)
	}
	if got := Reason(language.Russian, domain.ReasonPastDate); got != "Невозможно создать события в прошлом" {
		t.Fatalf("ru = %q", got)
	}
	if got := Reason(language.Chinese, domain.ReasonInvalidDate); got != "无效的日期格式" {
		t.Fatalf("zh = %q", got)
	}
}
