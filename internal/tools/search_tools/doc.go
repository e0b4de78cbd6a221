// Package search_tools provides web_search, backed by Tavily.
package search_tools
