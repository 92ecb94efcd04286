// Package validator wraps go-playground/validator for request payloads.
//
// Field names in errors follow the JSON names, so a bad hit time is
// reported as "hits[2].t". The custom "finite" tag rejects NaN and
// infinite floats, which would otherwise poison the momentum estimate.
package validator
