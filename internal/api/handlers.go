package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/user-dev-arch/MarketSentimentApp/internal/market"
	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
)

// queryInt reads a positive integer query parameter. Absent or empty
// values yield def.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return n, nil
}

// queryPeriod reads timePeriod, defaulting to 7d.
func queryPeriod(r *http.Request) (models.NewsTimePeriod, error) {
	v := strings.TrimSpace(r.URL.Query().Get("timePeriod"))
	if v == "" {
		return models.Period7d, nil
	}
	p := models.NewsTimePeriod(v)
	if !models.IsValidPeriod(p) {
		return "", fmt.Errorf("timePeriod must be one of 1d, 7d, 30d")
	}
	return p, nil
}

func (s *Server) handleTopMovers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", market.DefaultMoversLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	out, err := s.svc.TopMovers(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleNewsBuzz(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", market.DefaultMoversLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	period, err := queryPeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	out, err := s.svc.NewsBuzz(r.Context(), limit, period)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSentimentMovers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", market.DefaultMoversLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	out, err := s.svc.SentimentMovers(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStocks(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", market.DefaultStocksLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	out, err := s.svc.Stocks(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", market.DefaultNewsLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	period, err := queryPeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	q := r.URL.Query()
	out, err := s.svc.News(r.Context(), market.NewsQuery{
		Limit:     limit,
		Sentiment: strings.TrimSpace(q.Get("sentiment")),
		Stocks:    q.Get("stocks"),
		Period:    period,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	label, err := s.svc.Sentiment(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SentimentEnvelope{
		Data: models.SentimentReport{Sentiment: string(label)},
	})
}

func (s *Server) handleStockDetails(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.StockDetails(r.Context(), r.URL.Query().Get("ticker"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
