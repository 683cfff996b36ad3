// Package cmd provides the CLI commands for QuizBurst services.
//
// # Commands
//
// server: The API service. Exposes quiz authoring and live session
// endpoints; all client synchronization runs over polling.
//
//	JWT_SECRET=dev-secret go run ./cmd/server
//	DATABASE_URL=postgres://... JWT_SECRET=... go run ./cmd/server
//
// token: Mints a host bearer token for local development and smoke tests.
// Production tokens come from the auth collaborator, never from this tool.
//
//	go run ./cmd/token --secret=dev-secret --user=host-1 --email=host@example.com
//
// # Configuration
//
// The server reads ./config/config.yaml when present; every setting can
// also be supplied through environment variables (DATABASE_URL, REDIS_ADDR,
// RABBITMQ_URL, JWT_SECRET, LISTEN_ADDR). A .env file is honored for local
// runs.
package cmd
