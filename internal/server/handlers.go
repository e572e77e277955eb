package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"kufr-game/internal/model"
	"kufr-game/internal/service"
)

// levelView is what the player gets to see of an open level. The
// thing's name is the answer and never leaves the server; the hint text
// shows up only once the player has paid for it.
type levelView struct {
	Guesses  int      `json:"guesses"`
	Points   int      `json:"points"`
	UsedHint bool     `json:"used_hint"`
	Hint     *string  `json:"hint,omitempty"`
	Unhide   []string `json:"unhide"`
}

type gameView struct {
	Slug         string    `json:"slug"`
	StartTime    time.Time `json:"start_time"`
	ResultPoints *int      `json:"result_points"`
}

func toGameView(g *model.Game) gameView {
	return gameView{
		Slug:         g.Slug,
		StartTime:    g.StartTime,
		ResultPoints: g.ResultPoints,
	}
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64 `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request")
		return
	}

	slug, err := s.deps.Sessions.CreateGame(r.Context(), req.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"slug": slug})
}

func (s *Server) handleCurrentLevel(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.Sessions.LoadCurrentLevel(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := struct {
		Game     gameView   `json:"game"`
		Finished bool       `json:"finished"`
		Number   int        `json:"number,omitempty"`
		Total    int        `json:"levels_per_game"`
		Level    *levelView `json:"level"`
	}{
		Game:     toGameView(view.Game),
		Finished: view.Level == nil,
		Number:   view.Number,
		Total:    s.deps.Config.Game.LevelsPerGame,
	}

	if view.Level != nil {
		lv := levelView{
			Guesses:  view.Level.Guesses,
			Points:   view.Points,
			UsedHint: view.Level.UsedHint,
			Unhide:   view.Level.Unhide.Tokens(),
		}
		if view.Level.UsedHint {
			lv.Hint = view.Thing.Hint
		}
		resp.Level = &lv
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Guess string `json:"guess"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request")
		return
	}

	res, err := s.deps.Sessions.SubmitGuess(r.Context(), chi.URLParam(r, "slug"), req.Guess)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"result": string(res),
		"text":   s.deps.Responder.Text(res),
	})
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X int `json:"x"`
		Y int `json:"y"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request")
		return
	}

	if err := s.deps.Sessions.RevealCell(r.Context(), chi.URLParam(r, "slug"), req.X, req.Y); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Sessions.UseHint(r.Context(), chi.URLParam(r, "slug")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Sessions.AdvanceLevel(r.Context(), chi.URLParam(r, "slug")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.deps.Results.Results(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	type resultLevel struct {
		ThingID  int64    `json:"thing_id"`
		Done     bool     `json:"done"`
		Guesses  int      `json:"guesses"`
		Points   *int     `json:"points"`
		UsedHint bool     `json:"used_hint"`
		Unhide   []string `json:"unhide"`
	}
	type resultThing struct {
		ID   int64   `json:"id"`
		Name string  `json:"name"`
		Hint *string `json:"hint"`
	}

	resp := struct {
		Game   gameView      `json:"game"`
		Levels []resultLevel `json:"levels"`
		Things []resultThing `json:"things"`
	}{Game: toGameView(results.Game)}

	for _, lvl := range results.Levels {
		resp.Levels = append(resp.Levels, resultLevel{
			ThingID:  lvl.ThingID,
			Done:     lvl.Done,
			Guesses:  lvl.Guesses,
			Points:   lvl.Points,
			UsedHint: lvl.UsedHint,
			Unhide:   lvl.Unhide.Tokens(),
		})
	}
	for _, t := range results.Things {
		resp.Things = append(resp.Things, resultThing{ID: t.ID, Name: t.Name, Hint: t.Hint})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCellImage(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.Atoi(chi.URLParam(r, "x"))
	y, errY := strconv.Atoi(chi.URLParam(r, "y"))
	if errX != nil || errY != nil {
		writeError(w, http.StatusBadRequest, "bad_coordinates")
		return
	}

	path, err := s.deps.Sessions.CellImagePath(r.Context(), chi.URLParam(r, "slug"), x, y)
	if err != nil {
		if errors.Is(err, service.ErrCellHidden) {
			writeError(w, http.StatusNotFound, "cell_hidden")
			return
		}
		writeServiceError(w, err)
		return
	}

	http.ServeFile(w, r, path)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	games, err := s.deps.Results.TopGames(r.Context(), s.deps.Config.Game.TopGames)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	views := make([]gameView, 0, len(games))
	for _, g := range games {
		views = append(views, toGameView(g))
	}
	writeJSON(w, http.StatusOK, views)
}
