package core

import "strings"

// FlaggedCode is a gateway result code that should raise an alert.
type FlaggedCode struct {
	Code   string
	Reason string
}

var defaultFlaggedCodes = []FlaggedCode{
	{Code: "100.390.111", Reason: "Communication Error to Scheme Directory Server"},
	{Code: "000.400.030", Reason: "Transaction partially failed (please reverse manually due to failed automatic reversal)"},
	{Code: "900.100.100", Reason: "unexpected communication error with connector/acquirer"},
	{Code: "900.100.200", Reason: "error response from connector/acquirer"},
	{Code: "900.100.201", Reason: "error on the external gateway (e.g. on the part of the bank, acquirer,...)"},
	{Code: "900.100.202", Reason: "invalid transaction flow, the requested function is not applicable for the referenced transaction."},
	{Code: "900.100.203", Reason: "error on the internal gateway"},
	{Code: "900.100.204", Reason: "Error during message parsing"},
	{Code: "900.100.300", Reason: "timeout, uncertain result"},
	{Code: "900.100.301", Reason: "Transaction timed out without response from connector/acquirer. It was reversed."},
	{Code: "900.100.310", Reason: "Transaction timed out due to internal system misconfiguration. Request to acquirer has not been sent."},
	{Code: "900.100.400", Reason: "timeout at connectors/acquirer side"},
	{Code: "900.100.500", Reason: "timeout at connectors/acquirer side (try later)"},
	{Code: "900.100.600", Reason: "connector/acquirer currently down"},
	{Code: "900.100.700", Reason: "error on the external service provider"},
	{Code: "900.200.100", Reason: "Message Sequence Number of Connector out of sync"},
	{Code: "900.300.600", Reason: "user session timeout"},
	{Code: "900.400.100", Reason: "unexpected communication error with external risk provider"},
}

// DefaultFlaggedCodes returns a copy of the built-in alert table.
func DefaultFlaggedCodes() []FlaggedCode {
	return append([]FlaggedCode(nil), defaultFlaggedCodes...)
}

// DefaultFlaggedCodeValues returns the codes of the built-in alert table.
func DefaultFlaggedCodeValues() []string {
	out := make([]string, 0, len(defaultFlaggedCodes))
	for _, entry := range defaultFlaggedCodes {
		out = append(out, entry.Code)
	}
	return out
}

// FlaggedCodeSet is an ordered, read-only list of codes. Duplicates are kept.
type FlaggedCodeSet struct {
	codes []string
}

func NewFlaggedCodeSet(codes ...string) FlaggedCodeSet {
	normalized := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		normalized = append(normalized, code)
	}
	return FlaggedCodeSet{codes: normalized}
}

func DefaultFlaggedCodeSet() FlaggedCodeSet {
	return NewFlaggedCodeSet(DefaultFlaggedCodeValues()...)
}

func (s FlaggedCodeSet) Len() int {
	return len(s.codes)
}

func (s FlaggedCodeSet) Codes() []string {
	return append([]string(nil), s.codes...)
}

// Match compares code against every entry with exact, case-sensitive
// equality and returns one element per matching entry.
func (s FlaggedCodeSet) Match(code string) []string {
	var matches []string
	for _, flagged := range s.codes {
		if code == flagged {
			matches = append(matches, flagged)
		}
	}
	return matches
}

func (s FlaggedCodeSet) Contains(code string) bool {
	return len(s.Match(code)) > 0
}
