// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package coordinator

import (
	"strings"

	"github.com/wneessen/placepicker/internal/geocode"
	"github.com/wneessen/placepicker/internal/logger"
)

// SetQuery updates the query immediately and schedules a search once the input settled.
func (c *Coordinator) SetQuery(text string) {
	c.post(func() {
		c.store.Update(func(s *State) { s.Query = text })
	})
	c.debouncer.Push(text)
}

// onQuerySettled runs on the debounce timer goroutine.
func (c *Coordinator) onQuerySettled(text string) {
	c.post(func() { c.search(text) })
}

func (c *Coordinator) search(text string) {
	query := strings.TrimSpace(text)
	if query == "" {
		c.searches.drop()
		c.store.Update(func(s *State) {
			s.Candidates = nil
			s.Searching = false
		})
		return
	}

	query = strings.ToLower(query)
	req := c.searches.next(c.ctx, c.config.RequestTimeout)
	c.store.Update(func(s *State) { s.Searching = true })
	c.logger.Debug("searching places", "query", query, "seq", req.seq, "provider", c.geocoder.Name())

	go func() {
		defer req.finish()
		req.wait()
		places, err := c.geocoder.Search(req.ctx, query, c.config.Limit)
		c.post(func() { c.applySearch(req.seq, query, places, err) })
	}()
}

func (c *Coordinator) applySearch(seq uint64, query string, places []geocode.Place, err error) {
	if !c.searches.latest(seq) {
		c.logger.Debug("discarding superseded search result", "query", query, "seq", seq)
		return
	}
	if err != nil {
		// Search failures show up as an empty result list
		c.logger.Warn("failed to search places", "query", query, logger.Err(err))
		places = nil
	}
	c.store.Update(func(s *State) {
		s.Candidates = places
		s.Searching = false
	})
}
