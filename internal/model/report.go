// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

// AccountSummary is the per-account entry of the risk report.
type AccountSummary struct {
	AccountID    string    `json:"account_id" yaml:"account_id"`
	TotalFlagged int       `json:"total_flagged" yaml:"total_flagged"`
	Transactions []Flagged `json:"transactions" yaml:"transactions"`
}

// RiskReport groups flagged records by account.
type RiskReport struct {
	Accounts []AccountSummary `json:"accounts" yaml:"accounts"`
	// Presentation is the capped 0-100 per-account score shown to humans.
	// It is never mixed into the additive risk_score of flagged records.
	Presentation map[string]int `json:"presentation,omitempty" yaml:"presentation,omitempty"`
}

// Report is the final composite written by the supervisor.
type Report struct {
	// Transactions is the transaction data mapping with analysis flattened.
	Transactions map[string]any    `json:"transactions" yaml:"transactions"`
	FraudData    []Flagged         `json:"fraud_data" yaml:"fraud_data"`
	RiskReport   RiskReport        `json:"risk_report" yaml:"risk_report"`
	Readable     string            `json:"readable_report" yaml:"readable_report"`
	Error        *ComputationError `json:"error,omitempty" yaml:"error,omitempty"`
}
