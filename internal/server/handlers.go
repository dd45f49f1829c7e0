package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gitcards/git-cards/internal/bus"
	"github.com/gitcards/git-cards/internal/langstats"
	apperrors "github.com/gitcards/git-cards/internal/pkg/errors"
	"github.com/gitcards/git-cards/internal/pkg/security"
	"github.com/gitcards/git-cards/internal/scan"
	"github.com/gitcards/git-cards/internal/svg"
)

// MaxLimit caps how many identifiers a single card may request.
const MaxLimit = 50

// handleIdentifiersCard renders the code identifiers card.
// GET /api/code_identifiers?username=...&limit=...&langs=...&width=...
func (s *Server) handleIdentifiersCard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	username := usernameFrom(r)
	if username == "" {
		s.writeErrorCard(w, "Top Identifiers", "missing username parameter")
		return
	}

	opts := scan.Options{
		Limit:     s.parseLimit(r),
		Languages: parseLangs(r),
	}
	width := s.parseWidth(r)

	result, err := s.scanner.Scan(r.Context(), username, opts)
	if err != nil {
		s.log.Warn("Scan failed", "username", security.SanitizeForLog(username), "error", err)
		s.writeErrorCard(w, "Top Identifiers", errorMessage(err))
		return
	}

	card := svg.IdentifiersCard(result.Username, result.Items, result.LanguageFiles,
		result.RepoCount, result.FileCount, width)
	s.writeCard(w, r, "code_identifiers", username, card, start)
}

// handleLanguagesCard renders the language stats card.
// GET /api/language_stats?username=...&mode=...&width=...
func (s *Server) handleLanguagesCard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	username := usernameFrom(r)
	if username == "" {
		s.writeErrorCard(w, "Top Languages", "missing username parameter")
		return
	}

	if err := scan.ValidateUsername(username); err != nil {
		s.writeErrorCard(w, "Top Languages", errorMessage(err))
		return
	}

	mode := langstats.ParseMode(r.URL.Query().Get("mode"))
	width := s.parseWidth(r)

	entries, err := s.langstats.Stats(r.Context(), username)
	if err != nil {
		s.log.Warn("Language stats failed", "username", security.SanitizeForLog(username), "error", err)
		s.writeErrorCard(w, "Top Languages", errorMessage(err))
		return
	}

	card := langstats.Card(username, entries, mode, width)
	s.writeCard(w, r, "language_stats", username, card, start)
}

// writeCard writes a rendered card and records the render.
func (s *Server) writeCard(w http.ResponseWriter, r *http.Request, cardType, username, card string, start time.Time) {
	writeSVG(w, card)

	if s.metrics != nil {
		s.metrics.RecordCardRender(cardType, time.Since(start).Milliseconds())
	}
	if s.bus != nil {
		event := bus.NewEvent(bus.TopicCardRendered, username)
		event.Card = cardType
		event.DurationMs = time.Since(start).Milliseconds()
		if err := s.bus.Publish(r.Context(), bus.TopicCardRendered, event); err != nil {
			s.log.Debug("Failed to publish event", "topic", bus.TopicCardRendered, "error", err)
		}
	}
}

// writeErrorCard renders a failure as an SVG so the embedded image
// still shows something readable. The status is 200 on purpose: badge
// hosts like GitHub's camo proxy drop non-2xx image responses.
func (s *Server) writeErrorCard(w http.ResponseWriter, title, message string) {
	writeSVG(w, svg.ErrorCard(title, message))
}

func writeSVG(w http.ResponseWriter, card string) {
	w.Header().Set("Content-Type", "image/svg+xml; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, max-age=0")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(card))
}

// errorMessage extracts a short human-readable message, dropping the
// error code and wrapped chain that AppError.Error includes.
func errorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// usernameFrom reads the username from the trailing path segment or,
// failing that, the username query parameter.
func usernameFrom(r *http.Request) string {
	path := strings.Trim(r.URL.Path, "/")
	for _, prefix := range []string{"api/code_identifiers", "api/language_stats", "identifiers", "languages"} {
		if rest, ok := strings.CutPrefix(path, prefix); ok {
			if name := strings.Trim(rest, "/"); name != "" && !strings.Contains(name, "/") {
				return name
			}
			break
		}
	}
	return r.URL.Query().Get("username")
}

func (s *Server) parseLimit(r *http.Request) int {
	limit := s.app.Card.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return limit
}

func (s *Server) parseWidth(r *http.Request) int {
	width := s.app.Card.DefaultWidth
	if raw := r.URL.Query().Get("width"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			width = n
		}
	}
	return svg.ClampWidth(width)
}

// parseLangs splits the langs parameter into language keys. An empty
// parameter means no filter.
func parseLangs(r *http.Request) []string {
	raw := r.URL.Query().Get("langs")
	if raw == "" {
		return nil
	}
	var langs []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(strings.ToLower(part)); part != "" {
			langs = append(langs, part)
		}
	}
	return langs
}

// handleHealthz reports liveness.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": s.cfg.Version,
	})
}

// handleReadyz reports readiness to serve cards.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !s.Health() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "starting"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}
