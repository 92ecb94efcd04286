// Package dto contains the HTTP request and response bodies.
//
// Handlers parse and validate bodies with ParseAndValidate; failures come
// back as application errors, rendered by the shared error handler:
//
//	var req dto.CreateRunRequest
//	if err := dto.ParseAndValidate(c, &req); err != nil {
//	    return err
//	}
package dto
