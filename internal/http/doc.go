// Package http provides HTTP handlers and middleware for the portal API.
//
// Routes use net/http method patterns. Every route except session creation,
// term verification and the metrics endpoint runs behind RequireSession.
//
//   - POST /sessions, POST /sessions/refresh, DELETE /sessions/current, GET /me
//   - GET|POST /employees, GET|PUT /employees/{id}, PUT /me/signature-image
//   - GET|POST /units, GET|PUT /units/{id}, GET|POST /departments, PUT /departments/{id},
//     GET|POST /systems, PUT /systems/{id}, GET /postal-codes/{code}
//   - GET|POST /rooms, GET|PUT|DELETE /rooms/{id}
//   - GET /rooms/{id}/appointments?date=, POST /rooms/{id}/bookings,
//     GET /rooms/{id}/days/{date}, GET /rooms/{id}/week?offset=,
//     PATCH|DELETE /appointments/{id}
//   - GET|POST /term-templates, GET|PUT /term-templates/{id}
//   - GET|POST /terms, DELETE /terms/{id}, GET /terms/{id}/render,
//     POST /terms/{id}/sign, GET|POST /terms/{id}/return, GET /verify/{token}
//   - GET|POST /signature-requests, POST /signature-requests/{id}/complete,
//     POST /signature-previews, GET /signature-logs
//   - GET /notifications, POST /notifications/{id}/read
//   - GET|PUT /settings
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
