package tennisscore

// types.go — DTOs del endpoint de stats en vivo. Los campos numéricos son
// punteros: el endpoint omite lo que el panel del partido no muestra.

type liveResponse struct {
	Matches []apiMatch `json:"matches"`
}

type apiMatch struct {
	Tournament     string     `json:"tournament"`
	Favorite       string     `json:"favorite"`
	Underdog       string     `json:"underdog"`
	StatsURL       string     `json:"stats_url"`
	Finished       bool       `json:"finished"`
	PredictedScore string     `json:"predicted_score"`
	FormFavorite   string     `json:"form_favorite"` // "WWLWW", o cirílico "ВВПВВ"
	FormUnderdog   string     `json:"form_underdog"`
	Score          apiScore   `json:"score"`
	Signals        apiSignals `json:"signals"`
}

type apiScore struct {
	Sets   string `json:"sets"`   // sets ganados, "2:1"
	Points string `json:"points"` // puntos del set en curso, "8:5"
}

type scoresResponse struct {
	Matches []apiScoreEntry `json:"matches"`
}

// apiScoreEntry es la versión ligera que devuelve el endpoint de marcadores:
// solo jugadores y marcador, sin pilares ni forma.
type apiScoreEntry struct {
	Favorite string   `json:"favorite"`
	Underdog string   `json:"underdog"`
	Score    apiScore `json:"score"`
}

type apiSignals struct {
	PNoHistory  *float64 `json:"p_nohistory"`
	PHistory    *float64 `json:"p_history"`
	PLogistic   *float64 `json:"p_logistic"`
	PStrength   *float64 `json:"p_strength"`
	TrendShort  *float64 `json:"trend_short"`
	TrendMedium *float64 `json:"trend_medium"`
	FCI         *float64 `json:"fci"`
	Sum         *float64 `json:"sum"`
}
