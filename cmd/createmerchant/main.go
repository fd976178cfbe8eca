package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/nikhilthakur8/payping/app/models"
	"github.com/nikhilthakur8/payping/app/repository"
	"github.com/nikhilthakur8/payping/internal/pkg/database"
	"github.com/nikhilthakur8/payping/internal/pkg/env"
	"github.com/nikhilthakur8/payping/internal/pkg/keys"
)

// createmerchant provisions a merchant account: credentials, API key and,
// when a callback URL is given, a webhook signing secret. The plaintext key
// and secret are printed once and never stored.
func main() {
	name := flag.String("name", "", "merchant display name")
	email := flag.String("email", "", "merchant email (login)")
	password := flag.String("password", "", "merchant password")
	callbackURL := flag.String("callback-url", "", "webhook callback URL (optional)")
	providerCode := flag.String("provider", "paytm", "payment provider code")
	merchantID := flag.String("merchant-id", "", "provider merchant id (optional)")
	vpa := flag.String("vpa", "", "UPI VPA for payment links (optional)")
	flag.Parse()

	if *name == "" || *email == "" || *password == "" {
		flag.Usage()
		log.Fatal("name, email and password are required")
	}

	env.SetupEnvFile()
	database.SetupDatabase()
	db := database.GetDB()
	repository.InitializeFactory(db)
	repos := repository.GetGlobalRepositories()

	hashed, err := models.HashPassword(*password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	apiKey, err := keys.GenerateAPIKey()
	if err != nil {
		log.Fatalf("failed to generate API key: %v", err)
	}

	webhookSecret := ""
	if *callbackURL != "" {
		webhookSecret, err = keys.GenerateWebhookSecret()
		if err != nil {
			log.Fatalf("failed to generate webhook secret: %v", err)
		}
	}

	user := &models.User{
		Name:          *name,
		Email:         *email,
		Password:      hashed,
		Status:        models.STATUS_ACTIVE,
		APIKeyHash:    models.HashAPIKey(apiKey),
		WebhookSecret: webhookSecret,
		CallbackURL:   *callbackURL,
	}
	if err := user.Validate(); err != nil {
		log.Fatalf("invalid merchant data: %v", err)
	}
	if err := repos.User.Create(user); err != nil {
		log.Fatalf("failed to create merchant: %v", err)
	}

	if *merchantID != "" && *vpa != "" {
		var prov models.PaymentProvider
		if err := db.Where(models.PaymentProvider{Code: *providerCode}).
			Attrs(models.PaymentProvider{Name: *providerCode}).
			FirstOrCreate(&prov).Error; err != nil {
			log.Fatalf("failed to resolve provider %q: %v", *providerCode, err)
		}
		account := &models.UserProviderAccount{
			UserID:     user.ID,
			ProviderID: prov.ID,
			MerchantID: *merchantID,
			VPA:        *vpa,
			IsDefault:  true,
		}
		if err := db.Create(account).Error; err != nil {
			log.Fatalf("failed to create provider account: %v", err)
		}
	}

	fmt.Printf("Merchant created (id=%d)\n", user.ID)
	fmt.Printf("API key:        %s\n", apiKey)
	if webhookSecret != "" {
		fmt.Printf("Webhook secret: %s\n", webhookSecret)
	}
	fmt.Println("Store these now; they are not retrievable later.")
}
