package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAlternativeFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{
				{"value": "25", "value_classification": "Extreme Fear"},
			},
		})
	}))
	defer srv.Close()

	a := NewAlternative(AlternativeOptions{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
	sentiment, err := a.FetchSentiment(context.Background())
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if sentiment.FearGreedIndex != 25 {
		t.Fatalf("指数应解析为 25, 实际 %d", sentiment.FearGreedIndex)
	}
	if sentiment.FearGreedLabel != "Extreme Fear" {
		t.Fatalf("标签不符: %s", sentiment.FearGreedLabel)
	}
	if sentiment.Source != "alternative.me" {
		t.Fatalf("来源不符: %s", sentiment.Source)
	}
}

func TestAlternativeClampsOutOfRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{
				{"value": "140", "value_classification": "Broken"},
			},
		})
	}))
	defer srv.Close()

	a := NewAlternative(AlternativeOptions{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
	sentiment, err := a.FetchSentiment(context.Background())
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if sentiment.FearGreedIndex != 100 {
		t.Fatalf("超范围指数应钳制到 100, 实际 %d", sentiment.FearGreedIndex)
	}
}

func TestAlternativeMalformedValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"value": "not-a-number"}},
		})
	}))
	defer srv.Close()

	a := NewAlternative(AlternativeOptions{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
	_, err := a.FetchSentiment(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("非法数值应映射到 ErrUnavailable, 实际 %v", err)
	}
}

func TestAlternativeEmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}))
	defer srv.Close()

	a := NewAlternative(AlternativeOptions{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
	_, err := a.FetchSentiment(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("空数据应映射到 ErrUnavailable, 实际 %v", err)
	}
}
