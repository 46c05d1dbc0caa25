// Package testutil holds helpers shared by the test suites: transaction
// builders and a sleeper that records when node bodies ran.
package testutil
