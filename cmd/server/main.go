package main

import (
	"context"
	"log"
	"os"

	"go-pos-core/internal/ai"
	"go-pos-core/internal/auth"
	"go-pos-core/internal/config"
	"go-pos-core/internal/database"
	"go-pos-core/internal/handlers"
	"go-pos-core/internal/pos"
	"go-pos-core/internal/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("❌ Invalid configuration: ", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("❌ Database unavailable: ", err)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatal("❌ Cannot create upload directory: ", err)
	}

	engine := pos.NewEngine(db, pos.Options{
		Tax:             pos.TaxPolicyFor(cfg.TaxRatePercent),
		InvoiceAttempts: cfg.InvoiceMaxAttempts,
		Logger:          log.Default(),
	})
	h := handlers.New(db, cfg, engine, auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL))

	// --- Optional: Gemini assistant ---
	if cfg.GeminiAPIKey != "" {
		assistant, err := ai.NewAssistant(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, ai.NewToolbox(db, h.Catalog))
		if err != nil {
			log.Println("⚠️ Assistant disabled: ", err)
		} else {
			defer assistant.Close()
			h.Assistant = assistant
			log.Println("🤖 Assistant enabled with model " + cfg.GeminiModel)
		}
	} else {
		log.Println("🤖 GEMINI_API_KEY not set, assistant disabled")
	}

	if !cfg.TaxRatePercent.IsZero() {
		log.Printf("🧾 Default tax rate %s%%", cfg.TaxRatePercent.String())
	}

	r := routes.SetupRouter(h)

	log.Println("🚀 Server starting on " + cfg.BaseURL)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
