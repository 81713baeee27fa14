package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/Armin-kho/fx-crossrates/internal/crossrate"
	"github.com/Armin-kho/fx-crossrates/internal/currency"
	"github.com/Armin-kho/fx-crossrates/internal/utils"
)

// Subject heads every operator message.
const Subject = "Exchange Rates Alert"

type Options struct {
	RunID    string
	Location *time.Location
	// Jalali adds the Solar Hijri date next to the Gregorian one.
	Jalali bool
}

// Success renders the message sent after the bundle has been stored.
func Success(b crossrate.Bundle, opts Options) string {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	ref := b[currency.Reference]
	at := time.Unix(ref.Timestamp, 0)

	var sb strings.Builder
	sb.WriteString("✅ " + Subject + "\n")
	sb.WriteString("Successfully updated exchange rates\n")
	sb.WriteString("📅 " + ref.Date + " " + utils.TimeHHMM(at, loc))
	if opts.Jalali {
		sb.WriteString(" (" + utils.JalaliDate(at, loc) + ")")
	}
	sb.WriteString("\n")

	for _, base := range currency.All {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s 1 %s =\n", base.Emoji(), base))
		for _, quote := range currency.All {
			if quote == base {
				continue
			}
			sb.WriteString(fmt.Sprintf("   %s %s\n", utils.FormatRate(b.Rate(base, quote)), quote))
		}
	}
	writeRunID(&sb, opts.RunID)
	return strings.TrimRight(sb.String(), "\n")
}

// Failure renders the message sent when a run aborts.
func Failure(err error, opts Options) string {
	var sb strings.Builder
	sb.WriteString("⚠️ " + Subject + "\n")
	sb.WriteString("Execution failed: ")
	if err != nil {
		sb.WriteString(err.Error())
	} else {
		sb.WriteString("unknown error")
	}
	sb.WriteString("\n")
	writeRunID(&sb, opts.RunID)
	return strings.TrimRight(sb.String(), "\n")
}

func writeRunID(sb *strings.Builder, id string) {
	if id == "" {
		return
	}
	sb.WriteString("\nrun " + id + "\n")
}
