// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"net/http"

	"github.com/moov-io/todos/pkg/todo"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
)

type createTodoRequest struct {
	Text string `json:"text"`
}

type patchTodoRequest struct {
	Text      *string `json:"text"`
	Completed *bool   `json:"completed"`
}

// addTodoRoutes registers the todo CRUD routes. None of them require a
// token and todos aren't tied to an account.
func addTodoRoutes(router *mux.Router, logger log.Logger, repo todo.Repository) {
	router.Methods("POST").Path("/todos").HandlerFunc(createTodoRoute(logger, repo))
	router.Methods("GET").Path("/todos").HandlerFunc(listTodosRoute(repo))
	router.Methods("GET").Path("/todos/{id}").HandlerFunc(getTodoRoute(repo))
	router.Methods("DELETE").Path("/todos/{id}").HandlerFunc(deleteTodoRoute(logger, repo))
	router.Methods("PATCH").Path("/todos/{id}").HandlerFunc(patchTodoRoute(repo))
}

func createTodoRoute(logger log.Logger, repo todo.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTodoRequest
		if err := readJSON(r, &req); err != nil {
			encodeError(w, err)
			return
		}
		t, err := todo.New(req.Text)
		if err != nil {
			encodeError(w, err)
			return
		}
		if err := repo.Create(r.Context(), t); err != nil {
			internalError(w, err, "todos")
			return
		}
		logger.Log("todos", "created todo", "todoId", t.ID)
		writeJSON(w, t, "todos")
	}
}

func listTodosRoute(repo todo.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		todos, err := repo.List(r.Context())
		if err != nil {
			internalError(w, err, "todos")
			return
		}
		if todos == nil {
			todos = []*todo.Todo{}
		}
		writeJSON(w, map[string]interface{}{"todos": todos}, "todos")
	}
}

func getTodoRoute(repo todo.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := todoID(w, r)
		if !ok {
			return
		}
		t, err := repo.Get(r.Context(), id)
		if err != nil {
			todoError(w, err)
			return
		}
		writeJSON(w, map[string]interface{}{"todo": t}, "todos")
	}
}

func deleteTodoRoute(logger log.Logger, repo todo.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := todoID(w, r)
		if !ok {
			return
		}
		t, err := repo.Delete(r.Context(), id)
		if err != nil {
			todoError(w, err)
			return
		}
		logger.Log("todos", "deleted todo", "todoId", t.ID)
		writeJSON(w, map[string]interface{}{"todo": t}, "todos")
	}
}

func patchTodoRoute(repo todo.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := todoID(w, r)
		if !ok {
			return
		}
		var req patchTodoRequest
		if err := readJSON(r, &req); err != nil && !errors.Is(err, errMissingBody) {
			encodeError(w, err)
			return
		}
		update := todo.Update{
			Text:      req.Text,
			Completed: req.Completed != nil && *req.Completed,
		}
		t, err := repo.Update(r.Context(), id, update)
		if err != nil {
			todoError(w, err)
			return
		}
		writeJSON(w, t, "todos")
	}
}

// todoID reads the {id} path variable. Ids that can't be ours are answered
// with 404 right away.
func todoID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := mux.Vars(r)["id"]
	if !todo.ValidID(id) {
		w.WriteHeader(http.StatusNotFound)
		return "", false
	}
	return id, true
}

func todoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, todo.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, todo.ErrEmptyText):
		encodeError(w, err)
	default:
		internalError(w, err, "todos")
	}
}
