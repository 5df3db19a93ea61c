package api

import (
	"github.com/starford/wikigraph/internal/linkservice"
	"github.com/starford/wikigraph/internal/models"
)

// ParseLinksRequest is the request body for parsing wikilinks.
type ParseLinksRequest struct {
	Content string `json:"content" example:"See [[Alpha#Intro|the intro]]"`
}

// OutgoingLinksRequest is the request body for grouping and resolving outgoing links.
type OutgoingLinksRequest struct {
	Vault   string `json:"vault" example:"/home/me/vault"`
	Content string `json:"content" example:"See [[Alpha]] and [[Beta]]"`
}

// OutgoingLinksResponse wraps outgoing link groups.
type OutgoingLinksResponse struct {
	Links []models.OutgoingLink `json:"links" validate:"required"`
}

// BacklinksResponse wraps backlink groups.
type BacklinksResponse struct {
	Backlinks []models.BacklinkGroup `json:"backlinks" validate:"required"`
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.NoteMeta `json:"notes" validate:"required"`
	Total int               `json:"total" example:"42" validate:"required"`
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = linkservice.NoteDetail
