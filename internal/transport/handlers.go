package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/roach88/shelf/internal/access"
	"github.com/roach88/shelf/internal/catalog"
	"github.com/roach88/shelf/internal/events"
	"github.com/roach88/shelf/internal/shop"
	"github.com/roach88/shelf/internal/store"
)

const maxBody = 1 << 20

type productBody struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Price uint64 `json:"price"`
	Stock uint64 `json:"stock"`
}

type purchaseBody struct {
	Paid uint64 `json:"paid"`
}

type adminBody struct {
	Admin string `json:"admin"`
}

type removeResult struct {
	ID       uint64 `json:"id"`
	Position int    `json:"position"`
	Moved    uint64 `json:"moved,omitempty"`
}

func caller(r *http.Request) access.Principal {
	return access.Principal(r.Header.Get(HeaderPrincipal))
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("invalid body: %v", err))
		return false
	}
	return true
}

// pathID parses the {id} variable. The route pattern already guarantees
// digits, so only overflow can fail here.
func pathID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, string(shop.KindInvalidID), "product id out of range")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: not an integer", key)
	}
	return n, nil
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) listProducts(w http.ResponseWriter, _ *http.Request) {
	ps, err := s.shop.List()
	if err != nil {
		writeShopError(w, err)
		return
	}
	writeOK(w, http.StatusOK, ps)
}

func (s *Server) countProducts(w http.ResponseWriter, _ *http.Request) {
	n, err := s.shop.Count()
	if err != nil {
		writeShopError(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]int{"count": n})
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := s.shop.Get(id)
	if err != nil {
		writeShopError(w, err)
		return
	}
	writeOK(w, http.StatusOK, p)
}

func (s *Server) addProduct(w http.ResponseWriter, r *http.Request) {
	var body productBody
	if !decode(w, r, &body) {
		return
	}
	p, err := s.shop.Add(r.Context(), caller(r), catalog.Product(body))
	if err != nil {
		writeShopError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, p)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body productBody
	if !decode(w, r, &body) {
		return
	}
	if body.ID != 0 && body.ID != id {
		writeError(w, http.StatusBadRequest, string(shop.KindInvalidID), "body id does not match path")
		return
	}
	body.ID = id
	p, err := s.shop.Update(r.Context(), caller(r), catalog.Product(body))
	if err != nil {
		writeShopError(w, err)
		return
	}
	writeOK(w, http.StatusOK, p)
}

func (s *Server) removeProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	eff, err := s.shop.Remove(r.Context(), caller(r), id)
	if err != nil {
		writeShopError(w, err)
		return
	}
	writeOK(w, http.StatusOK, removeResult{ID: eff.ID, Position: eff.Position, Moved: eff.Moved})
}

func (s *Server) purchase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body purchaseBody
	if !decode(w, r, &body) {
		return
	}
	rc, err := s.shop.Purchase(r.Context(), caller(r), id, body.Paid)
	if err != nil {
		writeShopError(w, err)
		return
	}
	writeOK(w, http.StatusOK, rc)
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	amount, err := s.shop.Withdraw(r.Context(), caller(r))
	if err != nil {
		writeShopError(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]uint64{"amount": amount})
}

func (s *Server) getAdmin(w http.ResponseWriter, _ *http.Request) {
	a, err := s.shop.Admin()
	if err != nil {
		writeShopError(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]string{"admin": string(a)})
}

func (s *Server) isAdmin(w http.ResponseWriter, r *http.Request) {
	p := access.Principal(mux.Vars(r)["principal"])
	writeOK(w, http.StatusOK, map[string]bool{"is_admin": s.shop.IsAdmin(p)})
}

func (s *Server) transferAdmin(w http.ResponseWriter, r *http.Request) {
	var body adminBody
	if !decode(w, r, &body) {
		return
	}
	if err := s.shop.TransferAdmin(r.Context(), caller(r), access.Principal(body.Admin)); err != nil {
		writeShopError(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]string{"admin": body.Admin})
}

// listSales serves the whole history, a page (offset, limit) or an
// inclusive time range (from, to as RFC 3339).
func (s *Server) listSales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Has("from") || q.Has("to"):
		from, err1 := time.Parse(time.RFC3339Nano, q.Get("from"))
		to, err2 := time.Parse(time.RFC3339Nano, q.Get("to"))
		if err1 != nil || err2 != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "from and to must both be RFC 3339 timestamps")
			return
		}
		recs, err := s.shop.SalesByTimeRange(from, to)
		if err != nil {
			writeShopError(w, err)
			return
		}
		writeOK(w, http.StatusOK, recs)

	case q.Has("offset") || q.Has("limit"):
		offset, err := queryInt(r, "offset", 0)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
			return
		}
		limit, err := queryInt(r, "limit", 50)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
			return
		}
		recs, err := s.shop.SalesPage(offset, limit)
		if err != nil {
			writeShopError(w, err)
			return
		}
		writeOK(w, http.StatusOK, recs)

	default:
		recs, err := s.shop.SalesHistory()
		if err != nil {
			writeShopError(w, err)
			return
		}
		writeOK(w, http.StatusOK, recs)
	}
}

func (s *Server) countSales(w http.ResponseWriter, _ *http.Request) {
	n, err := s.shop.TotalSales()
	if err != nil {
		writeShopError(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]int{"count": n})
}

func (s *Server) revenueFor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rev, err := s.shop.RevenueFor(id)
	if err != nil {
		writeShopError(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]uint64{"product_id": id, "revenue": rev})
}

func (s *Server) summary(w http.ResponseWriter, _ *http.Request) {
	sum, err := s.shop.Summary()
	if err != nil {
		writeShopError(w, err)
		return
	}
	writeOK(w, http.StatusOK, sum)
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	if s.log == nil {
		writeOK(w, http.StatusOK, []events.Record{})
		return
	}
	after, err := queryInt(r, "after", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	recs, err := s.log.Events(r.Context(), int64(after), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, string(shop.KindInternal), err.Error())
		return
	}
	writeOK(w, http.StatusOK, recs)
}

// listPayouts is admin-only: the payout log names every refunded buyer.
func (s *Server) listPayouts(w http.ResponseWriter, r *http.Request) {
	if !s.shop.IsAdmin(caller(r)) {
		writeShopError(w, &shop.Error{Kind: shop.KindAccessDenied, Op: "payouts"})
		return
	}
	if s.payouts == nil {
		writeOK(w, http.StatusOK, []store.PayoutRecord{})
		return
	}
	recs, err := s.payouts.Payouts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, string(shop.KindInternal), err.Error())
		return
	}
	writeOK(w, http.StatusOK, recs)
}
