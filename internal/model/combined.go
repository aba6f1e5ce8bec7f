package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// CombinedSignal is the fused judgment for one symbol in one collection
// cycle. It is constructed empty, populated by the collector, finalized once
// by the fusion engine, and never mutated afterwards.
type CombinedSignal struct {
	Symbol    string
	Timestamp time.Time

	MarketData *MarketData
	NewsItems  []NewsItem
	Sentiment  *MarketSentiment
	Technicals *TechnicalIndicators

	OverallSignal SignalStrength
	Confidence    float64
	Risk          RiskLevel

	PriceSignal     SignalStrength
	NewsSignal      SignalStrength
	SentimentSignal SignalStrength
	TechnicalSignal SignalStrength

	Reasoning     []string
	Warnings      []string
	Opportunities []string
}

// FlatRecord is the serialization handed to persistence and display
// collaborators.
type FlatRecord struct {
	Symbol        string    `json:"symbol"`
	Timestamp     time.Time `json:"timestamp"`
	OverallSignal string    `json:"overall_signal"`
	Confidence    float64   `json:"confidence"`
	Risk          string    `json:"risk_level"`
	Reasoning     []string  `json:"reasoning"`
	Warnings      []string  `json:"warnings,omitempty"`
	Opportunities []string  `json:"opportunities,omitempty"`
}

// Flat converts the signal to its flat outbound record.
func (c *CombinedSignal) Flat() FlatRecord {
	return FlatRecord{
		Symbol:        c.Symbol,
		Timestamp:     c.Timestamp,
		OverallSignal: c.OverallSignal.String(),
		Confidence:    c.Confidence,
		Risk:          string(c.Risk),
		Reasoning:     c.Reasoning,
		Warnings:      c.Warnings,
		Opportunities: c.Opportunities,
	}
}

// JSON renders the flat record for storage.
func (c *CombinedSignal) JSON() ([]byte, error) {
	b, err := json.MarshalIndent(c.Flat(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal combined signal: %w", err)
	}
	return b, nil
}

// UID generates a stable short identifier for this (symbol, cycle) pairing.
func (c *CombinedSignal) UID() string {
	sum := sha256.Sum256([]byte(c.Symbol + c.Timestamp.Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])[:16]
}
