package api

import (
	"errors"
	"net/http"

	"github.com/dekarrin/gramlock/internal/gram/parse"
	"github.com/dekarrin/gramlock/server/dao"
	"github.com/dekarrin/gramlock/server/result"
)

type grammarRequest struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
}

type grammarResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Definition string `json:"definition"`
}

func fromDAO(g dao.Grammar) grammarResponse {
	return grammarResponse{ID: g.ID.String(), Name: g.Name, Definition: g.Definition}
}

// HTTPCreateGrammar validates and persists a new named grammar definition.
func (a *API) HTTPCreateGrammar() http.HandlerFunc {
	return httpEndpoint(a.UnauthDelay, a.epCreateGrammar)
}

func (a *API) epCreateGrammar(req *http.Request) result.Result {
	var body grammarRequest
	if err := parseJSON(req, &body); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if body.Name == "" {
		return result.BadRequest("name: property is empty or missing from request", "empty grammar name")
	}
	if _, err := parse.Parse(body.Definition); err != nil {
		return result.BadRequest("definition: "+err.Error(), err.Error())
	}

	g, err := a.Store.Grammars().Create(req.Context(), dao.Grammar{Name: body.Name, Definition: body.Definition})
	if err != nil {
		if errors.Is(err, dao.ErrConstraintViolation) {
			return result.Conflict("a grammar named '"+body.Name+"' already exists", err.Error())
		}
		return result.InternalServerError("could not create grammar: " + err.Error())
	}

	return result.Created(fromDAO(g), "created grammar '"+g.Name+"'")
}

// HTTPGetGrammar retrieves one grammar by ID.
func (a *API) HTTPGetGrammar() http.HandlerFunc {
	return httpEndpoint(a.UnauthDelay, a.epGetGrammar)
}

func (a *API) epGetGrammar(req *http.Request) result.Result {
	id, err := requireIDParam(req, "id")
	if err != nil {
		return result.BadRequest("id: not a valid identifier", err.Error())
	}

	g, err := a.Store.Grammars().GetByID(req.Context(), id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError("could not retrieve grammar: " + err.Error())
	}

	return result.OK(fromDAO(g))
}

// HTTPGetAllGrammars lists every stored grammar.
func (a *API) HTTPGetAllGrammars() http.HandlerFunc {
	return httpEndpoint(a.UnauthDelay, a.epGetAllGrammars)
}

func (a *API) epGetAllGrammars(req *http.Request) result.Result {
	all, err := a.Store.Grammars().GetAll(req.Context())
	if err != nil {
		return result.InternalServerError("could not retrieve grammars: " + err.Error())
	}

	resp := make([]grammarResponse, len(all))
	for i, g := range all {
		resp[i] = fromDAO(g)
	}
	return result.OK(resp)
}

// HTTPUpdateGrammar replaces a stored grammar's name/definition.
func (a *API) HTTPUpdateGrammar() http.HandlerFunc {
	return httpEndpoint(a.UnauthDelay, a.epUpdateGrammar)
}

func (a *API) epUpdateGrammar(req *http.Request) result.Result {
	id, err := requireIDParam(req, "id")
	if err != nil {
		return result.BadRequest("id: not a valid identifier", err.Error())
	}

	var body grammarRequest
	if err := parseJSON(req, &body); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if _, err := parse.Parse(body.Definition); err != nil {
		return result.BadRequest("definition: "+err.Error(), err.Error())
	}

	g, err := a.Store.Grammars().Update(req.Context(), id, dao.Grammar{Name: body.Name, Definition: body.Definition})
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError("could not update grammar: " + err.Error())
	}

	return result.OK(fromDAO(g), "updated grammar '"+g.Name+"'")
}

// HTTPDeleteGrammar removes a stored grammar.
func (a *API) HTTPDeleteGrammar() http.HandlerFunc {
	return httpEndpoint(a.UnauthDelay, a.epDeleteGrammar)
}

func (a *API) epDeleteGrammar(req *http.Request) result.Result {
	id, err := requireIDParam(req, "id")
	if err != nil {
		return result.BadRequest("id: not a valid identifier", err.Error())
	}

	g, err := a.Store.Grammars().Delete(req.Context(), id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError("could not delete grammar: " + err.Error())
	}

	return result.NoContent("deleted grammar '" + g.Name + "'")
}
