package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/commercesync/internal/content"
	inErrors "github.com/Alturino/commercesync/internal/errors"
	inHttp "github.com/Alturino/commercesync/internal/http"
	"github.com/Alturino/commercesync/internal/log"
	inOtel "github.com/Alturino/commercesync/internal/otel"
	"github.com/Alturino/commercesync/product/internal/otel"
	"github.com/Alturino/commercesync/product/pkg/response"
)

type Catalog interface {
	FindProducts(c context.Context) ([]content.ProductView, error)
	FindProductBySlug(c context.Context, slug string) (content.ProductView, error)
}

type ProductController struct {
	catalog Catalog
}

func AttachProductController(mux *mux.Router, catalog Catalog) {
	controller := ProductController{catalog: catalog}

	router := mux.PathPrefix("/products").Subrouter()
	router.HandleFunc("", controller.FindProducts).Methods(http.MethodGet)
	router.HandleFunc("/{slug}", controller.FindProductBySlug).Methods(http.MethodGet)
}

func (p ProductController) FindProducts(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController FindProducts")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "ProductController FindProducts").Logger()
	c = logger.WithContext(c)

	logger = logger.With().Str(log.KeyProcess, "finding products").Logger()
	logger.Trace().Msg("finding products")
	products, err := p.catalog.FindProducts(c)
	if err != nil {
		err = fmt.Errorf("failed finding products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusInternalServerError, "failed to find products")
		return
	}
	logger.Info().Int("products", len(products)).Msg("found products")

	inHttp.WriteSuccess(c, w, "successfully found products", map[string]interface{}{
		"products": response.FromViews(products),
	})
}

func (p ProductController) FindProductBySlug(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController FindProductBySlug")
	defer span.End()

	slug := mux.Vars(r)["slug"]
	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "ProductController FindProductBySlug").
		Str("slug", slug).
		Logger()
	c = logger.WithContext(c)

	logger = logger.With().Str(log.KeyProcess, "finding product").Logger()
	logger.Trace().Msg("finding product")
	product, err := p.catalog.FindProductBySlug(c, slug)
	if errors.Is(err, inErrors.ErrNotFound) {
		logger.Info().Msg("product not found")
		inHttp.WriteFailed(c, w, http.StatusNotFound, fmt.Sprintf("product slug=%s not found", slug))
		return
	}
	if err != nil {
		err = fmt.Errorf("failed finding product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusInternalServerError, "failed to find product")
		return
	}
	logger.Info().Str(log.KeyProductID, product.ID).Msg("found product")

	inHttp.WriteSuccess(c, w, "successfully found product", map[string]interface{}{
		"product": response.FromView(product),
	})
}
