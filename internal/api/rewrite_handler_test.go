package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liveResume/internal/errcode"
	"liveResume/internal/rewrite"
)

const experiencePatch = `{"name":"Ada","summary":"old","skills":["Go"],"experience":[
	{"company":"A","role":"r","start":"","end":"","bullets":["a1"]},
	{"company":"B","role":"r","start":"","end":"","bullets":["b1"]}]}`

func TestRewrite_AppliesResponse(t *testing.T) {
	ts := newTestServer(t)
	id := ts.newSession(t)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPatch, "/v1/session/document", id, experiencePatch).Code)

	ts.generator.set("```json\n{\"summary\":\"new\",\"experienceBullets\":[[\"x\"],null],\"skills\":[]}\n```", nil)

	w := ts.do(t, http.MethodPost, "/v1/session/rewrite", id, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Outcome string `json:"outcome"`
		docBody
	}
	decodeBody(t, w, &body)
	assert.Equal(t, "applied", body.Outcome)
	assert.Equal(t, "new", body.Document.Summary)
	assert.Equal(t, []string{"Go"}, body.Document.Skills)

	s, _ := ts.registry.Get(id)
	doc := s.Store.Read()
	assert.Equal(t, []string{"x"}, doc.Experience[0].Bullets)
	assert.Equal(t, []string{"b1"}, doc.Experience[1].Bullets)
	assert.Equal(t, "Ada", ts.generator.last.Name)
}

func TestRewrite_FailuresKeepDocument(t *testing.T) {
	cases := []struct {
		name   string
		text   string
		err    error
		status int
		code   int
	}{
		{"parse failure", "not json at all", nil, http.StatusUnprocessableEntity, errcode.ParseFailure},
		{"request failure", "", fmt.Errorf("%w: 500", rewrite.ErrRewriteRequest), http.StatusBadGateway, errcode.RewriteFailure},
		{"opaque failure", "", errors.New("dial tcp: refused"), http.StatusBadGateway, errcode.RewriteFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t)
			id := ts.newSession(t)
			ts.do(t, http.MethodPatch, "/v1/session/document", id, experiencePatch)
			s, _ := ts.registry.Get(id)
			before := s.Store.Read()

			ts.generator.set(tc.text, tc.err)
			w := ts.do(t, http.MethodPost, "/v1/session/rewrite", id, nil)
			assert.Equal(t, tc.status, w.Code)
			var e errBody
			decodeBody(t, w, &e)
			assert.Equal(t, tc.code, e.Code)
			assert.Equal(t, before, s.Store.Read())
		})
	}
}

func TestRewrite_RateLimited(t *testing.T) {
	ts := newTestServer(t)
	id := ts.newSession(t)
	ts.generator.set(`{}`, nil)

	for i := 0; i < 3; i++ {
		w := ts.do(t, http.MethodPost, "/v1/session/rewrite", id, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := ts.do(t, http.MethodPost, "/v1/session/rewrite", id, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	var e errBody
	decodeBody(t, w, &e)
	assert.Equal(t, errcode.RateLimited, e.Code)

	assert.Equal(t, time.Hour, ts.counter.ttls["rewrite_rate:"+id])
}

func TestGenerate(t *testing.T) {
	model := &scriptedGenerator{}
	ts := newTestServer(t, withModel(model))
	req := `{"name":"Ada","title":"Eng","summary":"keep me","skills":["Go"],"experience":[]}`

	model.set(`{"summary":"better","experienceBullets":[],"skills":["Go","SQL"]}`, nil)
	w := ts.do(t, http.MethodPost, "/v1/generate", "", req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"summary":"better","experienceBullets":[],"skills":["Go","SQL"]}`, w.Body.String())
	assert.Equal(t, "Ada", model.last.Name)

	model.set("Sure! Here is your resume.", nil)
	w = ts.do(t, http.MethodPost, "/v1/generate", "", req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"summary":"keep me","experienceBullets":[],"skills":["Go"]}`, w.Body.String())

	// 合法 JSON 但字段类型不符，同样回显输入
	model.set(`{"summary":42,"skills":"Go"}`, nil)
	w = ts.do(t, http.MethodPost, "/v1/generate", "", req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"summary":"keep me","experienceBullets":[],"skills":["Go"]}`, w.Body.String())

	model.set("", errors.New("quota exceeded"))
	w = ts.do(t, http.MethodPost, "/v1/generate", "", req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to generate"}`, w.Body.String())
}

func TestGenerate_NotRegisteredWithoutModel(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/v1/generate", "", `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
