package notify

import (
	"fmt"
	"strings"

	"github.com/alejandrodnm/courtbot/internal/domain"
)

// FinishedMarker se añade exactamente una vez al texto de un partido
// terminado.
const FinishedMarker = "✅ Match finished"

// mdEscaper neutraliza los caracteres que Telegram interpreta como
// formato Markdown dentro de nombres de jugadores o torneos.
var mdEscaper = strings.NewReplacer("*", `\*`, "_", `\_`, "[", `\[`, "`", "'")

// RenderVerdict produce el texto Markdown del mensaje de un partido.
// El mismo render sirve para el mensaje inicial y para las ediciones:
// solo cambian los datos que lo alimentan.
func RenderVerdict(s domain.MatchSignals, v domain.Verdict, liveScore string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s *%s* — %s vs %s\n",
		v.Badge.Icon(), v.Badge, mdEscaper.Replace(s.Favorite), mdEscaper.Replace(s.Underdog))
	if s.Tournament != "" {
		fmt.Fprintf(&b, "_%s_\n", mdEscaper.Replace(s.Tournament))
	}

	fmt.Fprintf(&b, "Score: %.2f", v.Score)
	if v.Stake != "" {
		fmt.Fprintf(&b, " | Stake: %s", mdEscaper.Replace(v.Stake))
	}
	if v.Predicted != "" {
		fmt.Fprintf(&b, " | Pred: %s", v.Predicted)
	}
	b.WriteString("\n")

	if fci, sum := s.FCI, s.Sum; fci != nil || sum != nil {
		sep := ""
		if fci != nil {
			fmt.Fprintf(&b, "FCI %.0f", *fci)
			sep = " | "
		}
		if sum != nil {
			fmt.Fprintf(&b, "%sSum %.0f", sep, *sum)
		}
		b.WriteString("\n")
	}

	if liveScore != "" {
		fmt.Fprintf(&b, "Live: %s\n", liveScore)
	}
	if len(v.Notes) > 0 {
		fmt.Fprintf(&b, "Notes: %s\n", strings.Join(v.Notes, "; "))
	}
	if s.StatsURL != "" {
		fmt.Fprintf(&b, "[Stats](%s)\n", s.StatsURL)
	}

	return strings.TrimRight(b.String(), "\n")
}
