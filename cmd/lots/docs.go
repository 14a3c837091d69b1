package main

// @title Lots Service API
// @version 1.0
// @description RFID lot and garment lifecycle for the jeans production lines, with storage reconciliation

// @contact.name API Support
// @contact.url http://github.com/tair/rfid-textile

// @host localhost:5000
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @tag.name Lots
// @tag.description Lot lifecycle endpoints

// @tag.name Jeans
// @tag.description Garment and quality control endpoints

// @tag.name Readers
// @tag.description Endpoints called by storage and portal RFID readers

// @tag.name Reports
// @tag.description Reconciliation and worker progress reports

// @tag.name Health
// @tag.description Health check endpoints
