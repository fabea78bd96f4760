package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dekarrin/gramlock"
	"github.com/dekarrin/gramlock/internal/gramerr"
	"github.com/dekarrin/gramlock/server/dao"
	"github.com/dekarrin/gramlock/server/result"
	"github.com/dekarrin/gramlock/server/serr"
	"github.com/dekarrin/gramlock/server/vocab"
)

type createSessionRequest struct {
	GrammarID  string      `json:"grammar_id"`
	Definition string      `json:"definition"`
	Vocab      vocab.Table `json:"vocab"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	GrammarID string `json:"grammar_id"`
	Done      bool   `json:"done"`
}

// HTTPCreateSession loads a grammar (by ID, or inline definition) against a
// host-supplied vocabulary and starts a new live Session.
func (a *API) HTTPCreateSession() http.HandlerFunc {
	return httpEndpoint(a.UnauthDelay, a.epCreateSession)
}

func (a *API) epCreateSession(req *http.Request) result.Result {
	var body createSessionRequest
	if err := parseJSON(req, &body); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if err := body.Vocab.Validate(); err != nil {
		return result.BadRequest("vocab: "+err.Error(), err.Error())
	}

	definition := body.Definition
	var grammarID uuid.UUID

	if body.GrammarID != "" {
		id, err := uuid.Parse(body.GrammarID)
		if err != nil {
			return result.BadRequest("grammar_id: not a valid identifier", err.Error())
		}
		g, err := a.Store.Grammars().GetByID(req.Context(), id)
		if err != nil {
			if errors.Is(err, dao.ErrNotFound) {
				return result.NotFound("grammar " + body.GrammarID + " does not exist")
			}
			return result.InternalServerError("could not retrieve grammar: " + err.Error())
		}
		definition = g.Definition
		grammarID = g.ID
	} else if definition == "" {
		return result.BadRequest("either grammar_id or definition is required", "no grammar given")
	} else {
		newID, err := uuid.NewRandom()
		if err != nil {
			return result.InternalServerError("could not generate grammar ID: " + err.Error())
		}
		grammarID = newID
	}

	o := vocab.OracleFor(body.Vocab)
	sess, err := gramlock.New(o, definition)
	if err != nil {
		return result.BadRequest("definition: "+err.Error(), err.Error())
	}

	sessionID, err := uuid.NewRandom()
	if err != nil {
		return result.InternalServerError("could not generate session ID: " + err.Error())
	}
	a.put(sessionID, &liveSession{Session: sess, Oracle: o, GrammarID: grammarID})

	return result.Created(sessionResponse{
		SessionID: sessionID.String(),
		GrammarID: grammarID.String(),
		Done:      sess.Done(),
	}, "created session against grammar "+grammarID.String())
}

// HTTPGetSession reports whether a session is done.
func (a *API) HTTPGetSession() http.HandlerFunc {
	return httpEndpoint(a.UnauthDelay, a.epGetSession)
}

func (a *API) epGetSession(req *http.Request) result.Result {
	ls, id, errResult := a.requireLiveSession(req)
	if errResult != nil {
		return *errResult
	}
	return result.OK(sessionResponse{SessionID: id.String(), GrammarID: ls.GrammarID.String(), Done: ls.Session.Done()})
}

// HTTPDeleteSession discards a session's in-memory and persisted state.
func (a *API) HTTPDeleteSession() http.HandlerFunc {
	return httpEndpoint(a.UnauthDelay, a.epDeleteSession)
}

func (a *API) epDeleteSession(req *http.Request) result.Result {
	id, err := requireIDParam(req, "id")
	if err != nil {
		return result.BadRequest("id: not a valid identifier", err.Error())
	}
	a.delete(id)
	_ = a.Store.Checkpoints().Delete(req.Context(), id) // no checkpoint to delete is not an error here
	return result.NoContent("deleted session " + id.String())
}

type maskRequest struct {
	Scores []float64 `json:"scores"`
}

type maskResponse struct {
	Scores []float64 `json:"scores"`
}

// HTTPMaskSession applies the session's current allowed-set to a caller-
// supplied scores vector and returns the masked result, the HTTP-transport
// equivalent of calling Session.MaskScores directly in-process.
func (a *API) HTTPMaskSession() http.HandlerFunc {
	return httpEndpoint(a.UnauthDelay, a.epMaskSession)
}

func (a *API) epMaskSession(req *http.Request) result.Result {
	ls, _, errResult := a.requireLiveSession(req)
	if errResult != nil {
		return *errResult
	}

	var body maskRequest
	if err := parseJSON(req, &body); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if len(body.Scores) != ls.Oracle.VocabSize() {
		return result.BadRequest("scores: must have exactly vocab_size entries", "got wrong-length scores array")
	}

	ls.Session.MaskScores(body.Scores)
	return result.OK(maskResponse{Scores: body.Scores})
}

type advanceRequest struct {
	TokenID int `json:"token_id"`
}

// HTTPAdvanceSession feeds a sampled token id into the session, logging a
// structured warning if the grammar rejects it outright.
func (a *API) HTTPAdvanceSession() http.HandlerFunc {
	return httpEndpoint(a.UnauthDelay, a.epAdvanceSession)
}

func (a *API) epAdvanceSession(req *http.Request) result.Result {
	ls, id, errResult := a.requireLiveSession(req)
	if errResult != nil {
		return *errResult
	}

	var body advanceRequest
	if err := parseJSON(req, &body); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	err := ls.Session.Advance(body.TokenID)
	if err != nil {
		var genErr *gramerr.GenerationError
		if errors.As(err, &genErr) {
			logrus.WithFields(logrus.Fields{
				"session_id": id.String(),
				"token_id":   genErr.TokenID,
				"rule":       genErr.Rule,
			}).Warn("sampled token rejected by grammar; session forced into EOS-only state")
		}
		return result.OK(sessionResponse{SessionID: id.String(), GrammarID: ls.GrammarID.String(), Done: ls.Session.Done()}, err.Error())
	}

	return result.OK(sessionResponse{SessionID: id.String(), GrammarID: ls.GrammarID.String(), Done: ls.Session.Done()})
}

// HTTPEnterRule forces the session's matcher to a named rule directly.
func (a *API) HTTPEnterRule() http.HandlerFunc {
	return httpEndpoint(a.UnauthDelay, a.epEnterRule)
}

func (a *API) epEnterRule(req *http.Request) result.Result {
	ls, id, errResult := a.requireLiveSession(req)
	if errResult != nil {
		return *errResult
	}

	rule := chiURLParam(req, "rule")
	if rule == "" {
		return result.BadRequest("rule: missing from path", "empty rule name")
	}

	if err := ls.Session.EnterRule(rule); err != nil {
		return result.BadRequest("rule: "+err.Error(), err.Error())
	}

	return result.OK(sessionResponse{SessionID: id.String(), GrammarID: ls.GrammarID.String(), Done: ls.Session.Done()})
}

type checkpointResponse struct {
	Checkpoint string `json:"checkpoint"`
}

// HTTPCheckpointSession persists the session's current matcher cursor.
func (a *API) HTTPCheckpointSession() http.HandlerFunc {
	return httpEndpoint(a.UnauthDelay, a.epCheckpointSession)
}

func (a *API) epCheckpointSession(req *http.Request) result.Result {
	ls, id, errResult := a.requireLiveSession(req)
	if errResult != nil {
		return *errResult
	}

	blob := ls.Session.CheckpointBytes()
	if _, err := a.Store.Checkpoints().Put(req.Context(), dao.Checkpoint{
		SessionID: id,
		GrammarID: ls.GrammarID,
		Cursor:    blob,
	}); err != nil {
		return result.InternalServerError("could not persist checkpoint: " + err.Error())
	}

	return result.OK(checkpointResponse{Checkpoint: encodeCheckpoint(blob)}, "checkpointed session "+id.String())
}

// HTTPRestoreSession rebuilds a session's live matcher from its last
// persisted checkpoint, for a host resuming generation after a restart. The
// grammar and vocab must already match what the session was created with;
// RestoreSession re-parses the grammar fresh since the in-memory Session was
// lost along with the process.
func (a *API) HTTPRestoreSession() http.HandlerFunc {
	return httpEndpoint(a.UnauthDelay, a.epRestoreSession)
}

type restoreSessionRequest struct {
	GrammarID string      `json:"grammar_id"`
	Vocab     vocab.Table `json:"vocab"`
}

func (a *API) epRestoreSession(req *http.Request) result.Result {
	id, err := requireIDParam(req, "id")
	if err != nil {
		return result.BadRequest("id: not a valid identifier", err.Error())
	}

	var body restoreSessionRequest
	if err := parseJSON(req, &body); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if err := body.Vocab.Validate(); err != nil {
		return result.BadRequest("vocab: "+err.Error(), err.Error())
	}

	grammarID, err := uuid.Parse(body.GrammarID)
	if err != nil {
		return result.BadRequest("grammar_id: not a valid identifier", err.Error())
	}
	g, err := a.Store.Grammars().GetByID(req.Context(), grammarID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return result.NotFound("grammar " + body.GrammarID + " does not exist")
		}
		return result.InternalServerError("could not retrieve grammar: " + err.Error())
	}

	cp, err := a.Store.Checkpoints().GetBySessionID(req.Context(), id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return result.NotFound("no checkpoint stored for session " + id.String())
		}
		return result.InternalServerError("could not retrieve checkpoint: " + err.Error())
	}

	o := vocab.OracleFor(body.Vocab)
	sess, err := gramlock.New(o, g.Definition)
	if err != nil {
		return result.InternalServerError("could not reparse stored grammar: " + err.Error())
	}
	if err := sess.RestoreCheckpointBytes(cp.Cursor); err != nil {
		return result.InternalServerError("could not restore checkpoint: " + err.Error())
	}

	a.put(id, &liveSession{Session: sess, Oracle: o, GrammarID: grammarID})
	return result.OK(sessionResponse{SessionID: id.String(), GrammarID: grammarID.String(), Done: sess.Done()}, "restored session "+id.String())
}

func (a *API) requireLiveSession(req *http.Request) (*liveSession, uuid.UUID, *result.Result) {
	id, err := requireIDParam(req, "id")
	if err != nil {
		r := result.BadRequest("id: not a valid identifier", err.Error())
		return nil, uuid.UUID{}, &r
	}
	ls, ok := a.get(id)
	if !ok {
		r := result.Err(http.StatusNotFound, serr.ErrNotFound.Error(), "no live session "+id.String())
		return nil, uuid.UUID{}, &r
	}
	return ls, id, nil
}
