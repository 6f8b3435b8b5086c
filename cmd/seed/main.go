// seed inserts development sample data for local testing. Run via go run ./cmd/seed.
// Idempotent: skips inserts if the dev admin (admin@foodbridge.dev) already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	applicationdomain "foodbridge/backend/internal/application/domain"
	applicationrepo "foodbridge/backend/internal/application/repository"
	"foodbridge/backend/internal/config"
	"foodbridge/backend/internal/db"
	listingdomain "foodbridge/backend/internal/listing/domain"
	listingrepo "foodbridge/backend/internal/listing/repository"
	membershipdomain "foodbridge/backend/internal/membership/domain"
	membershiprepo "foodbridge/backend/internal/membership/repository"
	orgdomain "foodbridge/backend/internal/organization/domain"
	organizationrepo "foodbridge/backend/internal/organization/repository"
	"foodbridge/backend/internal/security"
	userdomain "foodbridge/backend/internal/user/domain"
	userrepo "foodbridge/backend/internal/user/repository"
)

const (
	adminEmail  = "admin@foodbridge.dev"
	memberEmail = "member@foodbridge.dev"
	devPassword = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
		os.Exit(1)
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer database.Close()

	ctx := context.Background()

	users := userrepo.NewPostgresRepository(database)
	orgs := organizationrepo.NewPostgresRepository(database)
	memberships := membershiprepo.NewPostgresRepository(database)
	applications := applicationrepo.NewPostgresRepository(database)
	listings := listingrepo.NewPostgresRepository(database)

	if existing, err := users.GetByEmail(ctx, adminEmail); err != nil {
		log.Fatalf("lookup dev admin: %v", err)
	} else if existing != nil {
		log.Printf("seed: %s already exists, nothing to do", adminEmail)
		return
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()

	admin := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        adminEmail,
		PasswordHash: passwordHash,
		FirstName:    "Avery",
		LastName:     "Admin",
		Status:       userdomain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatalf("create dev admin: %v", err)
	}

	member := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        memberEmail,
		PasswordHash: passwordHash,
		FirstName:    "Morgan",
		LastName:     "Member",
		Status:       userdomain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, member); err != nil {
		log.Fatalf("create dev member: %v", err)
	}

	org := &orgdomain.Org{
		ID:        uuid.New().String(),
		Name:      "City Pantry",
		Address:   "12 Market Street",
		Email:     "contact@citypantry.dev",
		Phone:     "555-0100",
		URL:       "https://citypantry.dev",
		Status:    orgdomain.OrgStatusActive,
		CreatedAt: now,
	}
	if err := orgs.Create(ctx, org); err != nil {
		log.Fatalf("create dev org: %v", err)
	}

	for _, m := range []*membershipdomain.Membership{
		{ID: uuid.New().String(), UserID: admin.ID, OrgID: org.ID, Role: membershipdomain.RoleAdmin, CreatedAt: now},
		{ID: uuid.New().String(), UserID: member.ID, OrgID: org.ID, Role: membershipdomain.RoleMember, CreatedAt: now},
	} {
		if err := memberships.Upsert(ctx, m); err != nil {
			log.Fatalf("create membership: %v", err)
		}
	}

	app := &applicationdomain.OrgApplication{
		ID:        uuid.New().String(),
		UserID:    member.ID,
		Name:      "Harvest Share",
		Address:   "48 Orchard Road",
		Phone:     "555-0101",
		Email:     "hello@harvestshare.dev",
		URL:       "https://harvestshare.dev",
		Status:    applicationdomain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := applications.Create(ctx, app); err != nil {
		log.Fatalf("create org application: %v", err)
	}

	expiration := now.AddDate(0, 1, 0)
	donation := &listingdomain.Donation{
		ID:             uuid.New().String(),
		OrgID:          org.ID,
		Description:    "Canned beans and rice, 40 boxes",
		Picture:        "/media/donations/seed-beans.jpg",
		ExpirationDate: &expiration,
		Traits:         []listingdomain.Trait{listingdomain.TraitCans},
		CreatedAt:      now,
	}
	if err := listings.CreateDonation(ctx, donation); err != nil {
		log.Fatalf("create donation: %v", err)
	}

	request := &listingdomain.Request{
		ID:          uuid.New().String(),
		OrgID:       org.ID,
		Description: "Fresh produce for weekend meal service",
		Traits:      []listingdomain.Trait{listingdomain.TraitPerishable},
		CreatedAt:   now,
	}
	if err := listings.CreateRequest(ctx, request); err != nil {
		log.Fatalf("create request: %v", err)
	}

	log.Printf("seed: done (admin=%s member=%s password=%s org=%s)", adminEmail, memberEmail, devPassword, org.ID)
}
