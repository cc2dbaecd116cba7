// Package domain models the site safety-management workflow: the per-user
// page state machine, Tool Box Meeting (TBM) logging, hazard reporting and the
// head-office dashboard aggregates.
//
// # Pages
//
// A session is always on exactly one page:
//
//	Login ──site_login──────▶ FieldManager ──back───▶ Login
//	Login ──admin_dashboard─▶ HQDashboard  ──logout─▶ Login
//
// Any other (page, action) pair is rejected with [ErrInvalidTransition] and
// leaves the page unchanged. There is no terminal page.
//
// # Gates
//
// Two submissions on the field page are gated:
//
//	TBM:        photo AND "hazards communicated" acknowledgment, else ErrTBMIncomplete
//	Start work: protective-measure photo attached first, else ErrSafetyLocked
//
// The start-work gate is a safety lock: views must not offer the action at
// all until [Session.StartWorkAvailable] reports true. A rejected submission
// never mutates the session.
//
// # Archival log
//
// Every accepted submission is handed to an [ArchivalGateway]. Only once the
// gateway returns nil does the session append a [LogEntry] (which carries an
// attachment-presence flag, never the bytes). TBM records and log entries only
// ever grow within a session.
//
// Archive paths follow the NAS share layout the field teams already use:
//
//	\\NAS\Safety_Data\<site>\<YYYY-MM-DD>\
//
// # Wind
//
// A [WindReading] at or above [StoppageThreshold] (10.0 m/s, inclusive)
// requires the all-sites work-stoppage alert. The alert is display-only and
// does not lock either submission gate.
package domain
