package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"chargehub/internal/reconcile"
	"chargehub/internal/service"
	"chargehub/internal/task"
)

// RouterDeps holds everything the REST router needs.
type RouterDeps struct {
	Tokens      *TokenService
	Commands    *service.CommandService
	Tasks       *task.Store
	Reconciler  *reconcile.Reconciler
	OCPPUpgrade http.HandlerFunc
}

// NewRouter registers all REST endpoints plus the station websocket upgrade.
func NewRouter(deps RouterDeps) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	if deps.OCPPUpgrade != nil {
		r.PathPrefix("/ocpp/").HandlerFunc(deps.OCPPUpgrade)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/auth/token", NewTokenHandler(deps.Tokens)).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(AuthMiddleware(deps.Tokens))

	authed.HandleFunc("/tasks", NewTaskOverviewHandler(deps.Tasks)).Methods(http.MethodGet)
	authed.HandleFunc("/tasks/clear-finished", NewClearFinishedTasksHandler(deps.Tasks)).Methods(http.MethodPost)
	authed.HandleFunc("/tasks/{id}", NewTaskDetailsHandler(deps.Tasks)).Methods(http.MethodGet)

	authed.HandleFunc("/commands/set-charging-profile", NewSetChargingProfileHandler(deps.Commands)).Methods(http.MethodPost)
	authed.HandleFunc("/commands/clear-charging-profile", NewClearChargingProfileHandler(deps.Commands)).Methods(http.MethodPost)
	authed.HandleFunc("/commands/get-composite-schedule", NewGetCompositeScheduleHandler(deps.Commands)).Methods(http.MethodPost)
	authed.HandleFunc("/commands/remote-start", NewRemoteStartHandler(deps.Commands)).Methods(http.MethodPost)
	authed.HandleFunc("/commands/remote-stop", NewRemoteStopHandler(deps.Commands)).Methods(http.MethodPost)

	authed.HandleFunc("/transactions/{pk}", NewTransactionDetailsHandler(deps.Reconciler)).Methods(http.MethodGet)

	return r
}

func pathVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}
