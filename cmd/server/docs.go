// Package main Payment Service API
//
//	@title						Payment Service API
//	@version					1.0
//	@description				Payment order lifecycle over a card gateway: purchase, authorize, capture, cancel and refund.
//
//	@contact.name				Payments Team
//
//	@license.name				Proprietary
//
//	@host						localhost:8080
//	@BasePath					/api
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token from /auth/login. Format: "Bearer {token}"
//
//	@tag.name					Auth
//	@tag.description			Operator login
//
//	@tag.name					Payment
//	@tag.description			Payment order lifecycle
package main
