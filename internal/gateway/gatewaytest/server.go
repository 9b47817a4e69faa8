// Package gatewaytest provides an in-process stand-in for the storefront's
// remote REST API, for tests.
package gatewaytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"beauty-kart/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type user struct {
	password string
	id       string
	clientID string
	role     string
}

type failure struct {
	status    int
	remaining int // negative fails forever
}

// Server is a fake remote API mounted under /api. It keeps carts, lines,
// products, orders and invoices in memory and counts every request.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	nextID   int
	products map[string]*model.Product
	carts    map[string]*model.RemoteCart
	cartSeq  []string
	lines    map[string][]*model.RemoteCartLine
	orders   map[string]*model.Order
	invoices map[string]*model.Invoice
	emails   []string
	users    map[string]user
	tokens   map[string]string
	calls    map[string]int
	total    int
	failures map[string]*failure

	// EnforceAuth makes cart, order and invoice routes answer 401 without a
	// valid bearer token.
	EnforceAuth bool
}

// NewServer starts a Server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		products: make(map[string]*model.Product),
		carts:    make(map[string]*model.RemoteCart),
		lines:    make(map[string][]*model.RemoteCartLine),
		orders:   make(map[string]*model.Order),
		invoices: make(map[string]*model.Invoice),
		users:    make(map[string]user),
		tokens:   make(map[string]string),
		calls:    make(map[string]int),
		failures: make(map[string]*failure),
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handle(http.MethodPost, "/auth/login", false, s.login))

		r.Get("/produits/{id}", s.handle(http.MethodGet, "/produits/{id}", false, s.getProduct))
		r.Put("/produits/{id}/stock", s.handle(http.MethodPut, "/produits/{id}/stock", false, s.updateStock))

		r.Post("/paniers", s.handle(http.MethodPost, "/paniers", true, s.createCart))
		r.Get("/paniers/client/{clientId}/actif", s.handle(http.MethodGet, "/paniers/client/{clientId}/actif", true, s.activeCart))
		r.Put("/paniers/{id}", s.handle(http.MethodPut, "/paniers/{id}", true, s.updateCart))
		r.Delete("/paniers/{id}", s.handle(http.MethodDelete, "/paniers/{id}", true, s.deleteCart))
		r.Get("/paniers/{id}/total", s.handle(http.MethodGet, "/paniers/{id}/total", true, s.cartTotal))
		r.Get("/paniers/{id}/nombre-articles", s.handle(http.MethodGet, "/paniers/{id}/nombre-articles", true, s.cartCount))

		r.Post("/ligne-panier", s.handle(http.MethodPost, "/ligne-panier", true, s.addLine))
		r.Get("/ligne-panier/{id}", s.handle(http.MethodGet, "/ligne-panier/{id}", true, s.getLines))
		r.Put("/ligne-panier/{id}", s.handle(http.MethodPut, "/ligne-panier/{id}", true, s.updateLine))
		r.Delete("/ligne-panier/{id}/{lineId}", s.handle(http.MethodDelete, "/ligne-panier/{id}/{lineId}", true, s.removeLine))

		r.Post("/commandes/{id}", s.handle(http.MethodPost, "/commandes/{id}", true, s.createOrder))
		r.Post("/factures", s.handle(http.MethodPost, "/factures", true, s.createInvoice))
		r.Post("/email/send-facture/{id}", s.handle(http.MethodPost, "/email/send-facture/{id}", true, s.sendInvoice))
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// APIURL returns the base URL the gateway client should be configured with.
func (s *Server) APIURL() string {
	return s.URL + "/api/"
}

// AddProduct registers a product and returns its id.
func (s *Server) AddProduct(name string, price string, stock int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID("prod")
	s.products[id] = &model.Product{
		ID:    id,
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
	return id
}

// AddUser registers login credentials. An empty clientID models a user
// without a client profile.
func (s *Server) AddUser(email, password, userID, clientID, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = user{password: password, id: userID, clientID: clientID, role: role}
}

// SeedCart creates a cart for the client and returns its id.
func (s *Server) SeedCart(clientID string, active bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertCart(clientID, active).ID
}

// SeedLine adds a line to a cart directly, without touching stock.
func (s *Server) SeedLine(cartID, productID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product := s.products[productID]
	s.lines[cartID] = append(s.lines[cartID], &model.RemoteCartLine{
		ID:        s.newID("line"),
		CartID:    model.Ref(cartID),
		Product:   model.ProductRef{ID: productID},
		Quantity:  quantity,
		UnitPrice: product.Price,
	})
}

// Fail makes the route answer status for the next times requests.
// A negative times fails every request.
func (s *Server) Fail(method, pattern string, status, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+pattern] = &failure{status: status, remaining: times}
}

// Recover removes every configured failure.
func (s *Server) Recover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]*failure)
}

// TotalCalls returns the number of requests received.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Calls returns the number of requests received on a route.
func (s *Server) Calls(method, pattern string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+pattern]
}

// Stock returns the current stock of a product.
func (s *Server) Stock(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[productID]; ok {
		return p.Stock
	}
	return 0
}

// SetStock overwrites the stock of a product.
func (s *Server) SetStock(productID string, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[productID]; ok {
		p.Stock = stock
	}
}

// SetPrice overwrites the price of a product.
func (s *Server) SetPrice(productID, price string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[productID]; ok {
		p.Price = decimal.RequireFromString(price)
	}
}

// Carts returns every cart of a client in creation order.
func (s *Server) Carts(clientID string) []model.RemoteCart {
	s.mu.Lock()
	defer s.mu.Unlock()

	var carts []model.RemoteCart
	for _, id := range s.cartSeq {
		if cart, ok := s.carts[id]; ok && cart.ClientID.String() == clientID {
			carts = append(carts, *cart)
		}
	}
	return carts
}

// ActiveCarts returns the active carts of a client.
func (s *Server) ActiveCarts(clientID string) []model.RemoteCart {
	var active []model.RemoteCart
	for _, cart := range s.Carts(clientID) {
		if cart.IsActive {
			active = append(active, cart)
		}
	}
	return active
}

// Lines returns a copy of the lines of a cart.
func (s *Server) Lines(cartID string) []model.RemoteCartLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]model.RemoteCartLine, 0, len(s.lines[cartID]))
	for _, line := range s.lines[cartID] {
		lines = append(lines, *line)
	}
	return lines
}

// Orders returns the number of orders created.
func (s *Server) Orders() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// EmailsSent returns the order ids whose invoice was e-mailed.
func (s *Server) EmailsSent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.emails...)
}

type handlerFunc func(w http.ResponseWriter, r *http.Request)

// handle counts the request, applies configured failures and auth, then
// calls h with the store locked.
func (s *Server) handle(method, pattern string, protected bool, h handlerFunc) http.HandlerFunc {
	key := method + " " + pattern
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.total++
		s.calls[key]++

		if f, ok := s.failures[key]; ok && f.remaining != 0 {
			if f.remaining > 0 {
				f.remaining--
			}
			writeError(w, f.status, fmt.Sprintf("forced failure on %s", key))
			return
		}

		if protected && s.EnforceAuth {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if _, ok := s.tokens[token]; !ok || token == "" {
				writeError(w, http.StatusUnauthorized, "Token invalide")
				return
			}
		}

		h(w, r)
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Requête invalide")
		return
	}

	u, ok := s.users[req.Email]
	if !ok || u.password != req.Password {
		writeError(w, http.StatusUnauthorized, "Email ou mot de passe incorrect")
		return
	}

	token := "token-" + u.id
	s.tokens[token] = u.id

	userDoc := map[string]any{"_id": u.id, "role": u.role, "email": req.Email}
	if u.clientID != "" {
		userDoc["clientInfo"] = map[string]any{"_id": u.clientID}
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": userDoc})
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := s.products[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Produit non trouvé")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) updateStock(w http.ResponseWriter, r *http.Request) {
	product, ok := s.products[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Produit non trouvé")
		return
	}

	var req struct {
		Stock *int `json:"stock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Stock == nil || *req.Stock < 0 {
		writeError(w, http.StatusBadRequest, "Stock invalide")
		return
	}

	product.Stock = *req.Stock
	writeJSON(w, http.StatusOK, map[string]any{"message": "Stock mis à jour", "produit": product})
}

func (s *Server) createCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID string `json:"clientId"`
		IsActive *bool  `json:"est_actif"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ClientID == "" {
		writeError(w, http.StatusBadRequest, "clientId requis")
		return
	}

	active := req.IsActive == nil || *req.IsActive
	writeJSON(w, http.StatusCreated, s.insertCart(req.ClientID, active))
}

func (s *Server) activeCart(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientId")
	for i := len(s.cartSeq) - 1; i >= 0; i-- {
		cart, ok := s.carts[s.cartSeq[i]]
		if ok && cart.IsActive && cart.ClientID.String() == clientID {
			writeJSON(w, http.StatusOK, s.cartDocument(cart))
			return
		}
	}
	writeError(w, http.StatusNotFound, "Aucun panier actif")
}

func (s *Server) updateCart(w http.ResponseWriter, r *http.Request) {
	cart, ok := s.carts[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Panier non trouvé")
		return
	}

	var req struct {
		IsActive *bool `json:"est_actif"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	if req.IsActive != nil {
		cart.IsActive = *req.IsActive
	}
	cart.UpdatedAt = time.Now().UTC()
	writeJSON(w, http.StatusOK, cart)
}

func (s *Server) deleteCart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.carts[id]; !ok {
		writeError(w, http.StatusNotFound, "Panier non trouvé")
		return
	}
	delete(s.carts, id)
	delete(s.lines, id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Panier supprimé"})
}

func (s *Server) cartTotal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.carts[id]; !ok {
		writeError(w, http.StatusNotFound, "Panier non trouvé")
		return
	}
	writeJSON(w, http.StatusOK, model.CartTotal{Total: s.totalOf(id)})
}

func (s *Server) cartCount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.carts[id]; !ok {
		writeError(w, http.StatusNotFound, "Panier non trouvé")
		return
	}
	count := 0
	for _, line := range s.lines[id] {
		count += line.Quantity
	}
	writeJSON(w, http.StatusOK, model.CartItemCount{ItemCount: count})
}

func (s *Server) addLine(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CartID    string          `json:"panierId"`
		ProductID string          `json:"produitId"`
		Quantity  int             `json:"quantite"`
		UnitPrice decimal.Decimal `json:"prixUnitaire"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "Requête invalide")
		return
	}

	if _, ok := s.carts[req.CartID]; !ok {
		writeError(w, http.StatusNotFound, "Panier non trouvé")
		return
	}
	product, ok := s.products[req.ProductID]
	if !ok {
		writeError(w, http.StatusNotFound, "Produit non trouvé")
		return
	}
	if product.Stock < req.Quantity {
		writeError(w, http.StatusBadRequest, "Stock insuffisant")
		return
	}

	for _, line := range s.lines[req.CartID] {
		if line.Product.ID == req.ProductID {
			line.Quantity += req.Quantity
			writeJSON(w, http.StatusOK, line)
			return
		}
	}

	line := &model.RemoteCartLine{
		ID:        s.newID("line"),
		CartID:    model.Ref(req.CartID),
		Product:   model.ProductRef{ID: req.ProductID},
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
	}
	s.lines[req.CartID] = append(s.lines[req.CartID], line)
	writeJSON(w, http.StatusCreated, line)
}

func (s *Server) getLines(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.carts[id]; !ok {
		writeError(w, http.StatusNotFound, "Panier non trouvé")
		return
	}

	docs := make([]map[string]any, 0, len(s.lines[id]))
	for _, line := range s.lines[id] {
		product := map[string]any{"_id": line.Product.ID}
		if p, ok := s.products[line.Product.ID]; ok {
			product["nom"] = p.Name
			product["prix"] = p.Price
			product["image"] = p.Image
		}
		docs = append(docs, map[string]any{
			"_id":          line.ID,
			"panierId":     id,
			"produitId":    product,
			"quantite":     line.Quantity,
			"prixUnitaire": line.UnitPrice,
		})
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) updateLine(w http.ResponseWriter, r *http.Request) {
	line := s.findLine(chi.URLParam(r, "id"))
	if line == nil {
		writeError(w, http.StatusNotFound, "Ligne non trouvée")
		return
	}

	var req struct {
		Quantity  int              `json:"quantite"`
		UnitPrice *decimal.Decimal `json:"prixUnitaire"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "Quantité invalide")
		return
	}

	line.Quantity = req.Quantity
	if req.UnitPrice != nil {
		line.UnitPrice = *req.UnitPrice
	}
	writeJSON(w, http.StatusOK, line)
}

func (s *Server) removeLine(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "id")
	lineID := chi.URLParam(r, "lineId")

	lines := s.lines[cartID]
	for i, line := range lines {
		if line.ID == lineID {
			s.lines[cartID] = append(lines[:i], lines[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Ligne supprimée"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Ligne non trouvée")
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "id")
	cart, ok := s.carts[cartID]
	if !ok {
		writeError(w, http.StatusNotFound, "Panier non trouvé")
		return
	}

	var req struct {
		ClientID string `json:"clientId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ClientID == "" {
		writeError(w, http.StatusBadRequest, "clientId requis")
		return
	}
	if !cart.IsActive {
		writeError(w, http.StatusBadRequest, "Le panier n'est pas actif")
		return
	}
	if len(s.lines[cartID]) == 0 {
		writeError(w, http.StatusBadRequest, "Le panier est vide")
		return
	}

	total := s.totalOf(cartID)
	order := &model.Order{
		ID:        s.newID("order"),
		ClientID:  model.Ref(req.ClientID),
		CartID:    model.Ref(cartID),
		Status:    "en_attente",
		Total:     total,
		TVA:       total.Mul(decimal.RequireFromString("0.2")).Round(2),
		CreatedAt: time.Now().UTC(),
	}
	s.orders[order.ID] = order
	cart.IsActive = false

	writeJSON(w, http.StatusCreated, map[string]any{"message": "Commande créée", "commande": order})
}

func (s *Server) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID string `json:"commandeId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Requête invalide")
		return
	}

	order, ok := s.orders[req.OrderID]
	if !ok {
		writeError(w, http.StatusNotFound, "Commande non trouvée")
		return
	}

	invoice := &model.Invoice{
		ID:      s.newID("invoice"),
		OrderID: model.Ref(order.ID),
		Number:  fmt.Sprintf("FAC-%04d", len(s.invoices)+1),
		Status:  "emise",
		Total:   order.Total,
	}
	s.invoices[invoice.ID] = invoice
	order.InvoiceID = model.Ref(invoice.ID)

	writeJSON(w, http.StatusCreated, map[string]any{"facture": invoice})
}

func (s *Server) sendInvoice(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	order, ok := s.orders[orderID]
	if !ok || order.InvoiceID == "" {
		writeError(w, http.StatusNotFound, "Facture non trouvée")
		return
	}
	s.emails = append(s.emails, orderID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Email envoyé"})
}

func (s *Server) insertCart(clientID string, active bool) *model.RemoteCart {
	now := time.Now().UTC()
	cart := &model.RemoteCart{
		ID:        s.newID("cart"),
		ClientID:  model.Ref(clientID),
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.carts[cart.ID] = cart
	s.cartSeq = append(s.cartSeq, cart.ID)
	return cart
}

func (s *Server) cartDocument(cart *model.RemoteCart) model.RemoteCart {
	doc := *cart
	for _, line := range s.lines[cart.ID] {
		doc.Lines = append(doc.Lines, *line)
	}
	return doc
}

func (s *Server) findLine(lineID string) *model.RemoteCartLine {
	for _, lines := range s.lines {
		for _, line := range lines {
			if line.ID == lineID {
				return line
			}
		}
	}
	return nil
}

func (s *Server) totalOf(cartID string) decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.lines[cartID] {
		total = total.Add(line.LineTotal())
	}
	return total
}

func (s *Server) newID(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
