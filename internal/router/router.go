package router

import (
	"net/http"

	"github.com/reviewcrew/backend/internal/auth"
	"github.com/reviewcrew/backend/internal/catalog"
	"github.com/reviewcrew/backend/internal/dashboard"
	"github.com/reviewcrew/backend/internal/handlers"
	"github.com/reviewcrew/backend/internal/middleware"
)

// New returns an http.Handler serving the admin API under /api/v1.
// Everything except the auth endpoints sits behind bearer-token auth.
func New(
	authHandler *auth.Handler,
	catalogHandler *catalog.Handler,
	reviewHandler *handlers.ReviewHandler,
	withdrawalHandler *handlers.WithdrawalHandler,
	dashHandler *dashboard.Handler,
	tokens middleware.TokenValidator,
) http.Handler {
	mux := http.NewServeMux()
	base := "/api/v1"

	mux.HandleFunc("POST "+base+"/auth/register", authHandler.Register)
	mux.HandleFunc("POST "+base+"/auth/login", authHandler.Login)

	admin := http.NewServeMux()
	admin.HandleFunc("GET "+base+"/stats", dashHandler.GetStats)

	admin.HandleFunc("GET "+base+"/workers", dashHandler.ListWorkers)
	admin.HandleFunc("GET "+base+"/workers/{id}", dashHandler.GetWorker)
	admin.HandleFunc("GET "+base+"/workers/{id}/entries", dashHandler.ListWorkerEntries)

	admin.HandleFunc("POST "+base+"/categories", catalogHandler.CreateCategory)
	admin.HandleFunc("GET "+base+"/categories", catalogHandler.ListCategories)
	admin.HandleFunc("GET "+base+"/categories/{id}", catalogHandler.GetCategory)
	admin.HandleFunc("PUT "+base+"/categories/{id}", catalogHandler.UpdateCategory)
	admin.HandleFunc("DELETE "+base+"/categories/{id}", catalogHandler.DeleteCategory)
	admin.HandleFunc("POST "+base+"/items", catalogHandler.CreateItem)
	admin.HandleFunc("GET "+base+"/categories/{id}/items", catalogHandler.ListItems)
	admin.HandleFunc("DELETE "+base+"/items/{id}", catalogHandler.DeleteItem)

	admin.HandleFunc("GET "+base+"/reviews", reviewHandler.ListPending)
	admin.HandleFunc("POST "+base+"/reviews/{workerID}", reviewHandler.Decide)

	admin.HandleFunc("GET "+base+"/withdrawals", withdrawalHandler.List)
	admin.HandleFunc("POST "+base+"/withdrawals/{id}", withdrawalHandler.Resolve)

	admin.HandleFunc("GET "+base+"/contents", dashHandler.ListContents)
	admin.HandleFunc("PUT "+base+"/contents/{key}", dashHandler.UpdateContent)

	mux.Handle(base+"/", middleware.AdminAuth(tokens)(admin))

	return mux
}
