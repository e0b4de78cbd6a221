// Package search is a small client for the Tavily web search API.
package search
