// Package planner decides how many scouts of which kinds a query gets.
//
// Plan is a pure policy function over a classified query and coarse
// corpus statistics. Planner wraps it with the one metadata call it needs
// and treats a failing store as an empty corpus.
package planner
