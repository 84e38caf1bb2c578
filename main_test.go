package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivy-assistant/server/internal/agent/model"
	"github.com/ivy-assistant/server/internal/agent/repo"
)

func TestOpenStore(t *testing.T) {
	store, closer, err := openStore(context.Background(), &AppConfig{StateBackend: "Memory"})
	require.NoError(t, err)
	assert.IsType(t, &repo.MemoryStore{}, store)
	assert.NoError(t, closer.Close())

	_, _, err = openStore(context.Background(), &AppConfig{StateBackend: "cassandra"})
	assert.ErrorContains(t, err, "cassandra")
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	render(&buf, model.TextMessage("hello"))
	render(&buf, model.Message{Kind: model.MessageSuggestions, Actions: []model.Action{{Title: "A"}, {Title: "B"}}})
	render(&buf, model.Message{Kind: model.MessageCard, Card: &model.Card{
		Type: model.CardNewsCarousel,
		News: []model.NewsItem{{Title: "Headline", URL: "https://news.example.com"}},
	}})

	assert.Equal(t, "ivy> hello\n     [A] [B]\n     1. Headline\n        https://news.example.com\n", buf.String())
}

func TestParsePosition(t *testing.T) {
	pos, err := parsePosition("50.85, 4.35")
	require.NoError(t, err)
	assert.Equal(t, &model.GeoPoint{Lat: 50.85, Lon: 4.35}, pos)

	pos, err = parsePosition("")
	require.NoError(t, err)
	assert.Nil(t, pos)

	for _, bad := range []string{"50.85", "north,4.35", "91,0", "0,181"} {
		_, err := parsePosition(bad)
		assert.Error(t, err, bad)
	}
}
