package services

import "errors"

// Sentinel errors shared across services and the HTTP error mapping.
var (
	// Not found
	ErrNotFound           = errors.New("requested resource not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrUserNotFound       = errors.New("user not found")

	// Bracket preconditions
	ErrNotEnoughTeams         = errors.New("need at least 8 teams to start a tournament")
	ErrNoActiveTournament     = errors.New("no active tournament")
	ErrTournamentActive       = errors.New("an active tournament already exists")
	ErrNoPendingMatches       = errors.New("no pending matches to resolve")
	ErrRoundNotCompleted      = errors.New("all matches of the current round must be completed before advancing")
	ErrTournamentCompleted    = errors.New("tournament is already completed")
	ErrInvalidStageTransition = errors.New("invalid tournament stage transition")
	ErrConcurrentTransition   = errors.New("another tournament transition is in progress, retry")

	// Validation and business rules
	ErrValidationFailed = errors.New("validation failed")
	ErrSquadSizeInvalid = errors.New("squad must have exactly 23 players")
	ErrCountryConflict  = errors.New("a team for this country already exists")
	ErrCountryRequired  = errors.New("team country is required")
	ErrManagerRequired  = errors.New("team manager is required")
	ErrPlayerNotInSquad = errors.New("player is not in the squad")
	ErrInvalidPosition  = errors.New("invalid player position")
	ErrInvalidScore     = errors.New("scores must be non-negative integers")
	ErrMatchNotPending  = errors.New("match is not pending")

	// Infrastructure
	ErrStorageUnavailable = errors.New("file storage is not configured")

	// Authentication
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
	ErrPasswordTooShort       = errors.New("password is too short")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
)
