package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/Alturino/commercesync/internal/cache"
	"github.com/Alturino/commercesync/internal/content"
	"github.com/Alturino/commercesync/internal/log"
	inOtel "github.com/Alturino/commercesync/internal/otel"
	"github.com/Alturino/commercesync/internal/payments"
	"github.com/Alturino/commercesync/internal/retry"
	"github.com/Alturino/commercesync/sync/internal/otel"
	"github.com/Alturino/commercesync/sync/pkg/request"
)

// PaymentsToContentService mirrors payments provider events into the
// content store.
type PaymentsToContentService struct {
	store  ContentStore
	cache  CacheInvalidator
	policy retry.Policy
}

func NewPaymentsToContentService(
	store ContentStore,
	cache CacheInvalidator,
	policy retry.Policy,
) *PaymentsToContentService {
	return &PaymentsToContentService{store: store, cache: cache, policy: policy}
}

func (svc *PaymentsToContentService) HandleEvent(c context.Context, event payments.Event) (Outcome, error) {
	c, span := otel.Tracer.Start(c, "PaymentsToContentService HandleEvent")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "PaymentsToContentService HandleEvent").
		Str(log.KeyEventID, event.ID).
		Str(log.KeyEventType, event.Type).
		Logger()
	c = logger.WithContext(c)

	var (
		outcome Outcome
		err     error
	)
	switch event.Type {
	case payments.EventProductCreated, payments.EventProductUpdated:
		var product request.PaymentsProduct
		if product, err = request.Decode[request.PaymentsProduct](c, event.Object); err == nil {
			outcome, err = svc.SyncProduct(c, product)
		}
	case payments.EventProductDeleted:
		var deleted request.PaymentsDeleted
		if deleted, err = request.Decode[request.PaymentsDeleted](c, event.Object); err == nil {
			outcome, err = svc.DeleteProduct(c, deleted)
		}
	case payments.EventPriceCreated, payments.EventPriceUpdated:
		var price request.PaymentsPrice
		if price, err = request.Decode[request.PaymentsPrice](c, event.Object); err == nil {
			outcome, err = svc.SyncPrice(c, price)
		}
	case payments.EventPriceDeleted:
		var deleted request.PaymentsDeleted
		if deleted, err = request.Decode[request.PaymentsDeleted](c, event.Object); err == nil {
			outcome, err = svc.DeletePrice(c, deleted)
		}
	case payments.EventCheckoutDone, payments.EventCheckoutExpired:
		var session request.PaymentsCheckoutSession
		if session, err = request.Decode[request.PaymentsCheckoutSession](c, event.Object); err == nil {
			status := content.CheckoutSuccess
			if event.Type == payments.EventCheckoutExpired {
				status = content.CheckoutCanceled
			}
			outcome, err = svc.UpdateCheckoutStatus(c, session.ID, status)
		}
	default:
		logger.Warn().Msgf("unhandled event type=%s", event.Type)
		return OutcomeIgnored, nil
	}
	if err != nil {
		err = fmt.Errorf("failed handling event=%s type=%s with error=%w", event.ID, event.Type, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger.Info().Str("outcome", string(outcome)).Msg("handled event")
	return outcome, nil
}

// findMirroredProduct looks a product up by its mirrored document id, then
// by payments id for documents created under another id.
func (svc *PaymentsToContentService) findMirroredProduct(
	c context.Context,
	docID string,
	paymentsProductID string,
) (content.Product, bool, error) {
	product, err := svc.store.FindProduct(c, docID)
	if err == nil {
		return product, true, nil
	}
	if !isNotFound(err) {
		return content.Product{}, false, err
	}
	product, err = svc.store.FindProductByPaymentsID(c, paymentsProductID)
	if err == nil {
		return product, true, nil
	}
	if !isNotFound(err) {
		return content.Product{}, false, err
	}
	return content.Product{}, false, nil
}

func (svc *PaymentsToContentService) findMirroredPrice(
	c context.Context,
	docID string,
	paymentsPriceID string,
) (content.Price, bool, error) {
	price, err := svc.store.FindPrice(c, docID)
	if err == nil {
		return price, true, nil
	}
	if !isNotFound(err) {
		return content.Price{}, false, err
	}
	price, err = svc.store.FindPriceByPaymentsID(c, paymentsPriceID)
	if err == nil {
		return price, true, nil
	}
	if !isNotFound(err) {
		return content.Price{}, false, err
	}
	return content.Price{}, false, nil
}

// resolveImages maps provider image urls to content image assets. Urls with
// no asset are skipped. Keys of assets already on the document are kept.
func (svc *PaymentsToContentService) resolveImages(
	c context.Context,
	urls []string,
	existing []content.ImageRef,
) ([]content.ImageRef, error) {
	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "PaymentsToContentService resolveImages").Logger()

	keys := make(map[string]string, len(existing))
	for _, image := range existing {
		keys[image.AssetID] = image.Key
	}

	images := make([]content.ImageRef, 0, len(urls))
	for _, url := range urls {
		asset, err := svc.store.FindImageAssetByURL(c, url)
		if isNotFound(err) {
			logger.Warn().Str(log.KeyImageURL, url).Msg("no image asset for url skipping image")
			continue
		}
		if err != nil {
			return nil, err
		}
		key, ok := keys[asset.ID]
		if !ok {
			key = asset.AssetID
		}
		images = append(images, content.ImageRef{Key: key, AssetID: asset.ID})
	}
	return images, nil
}

func (svc *PaymentsToContentService) SyncProduct(c context.Context, p request.PaymentsProduct) (Outcome, error) {
	c, span := otel.Tracer.Start(c, "PaymentsToContentService SyncProduct")
	defer span.End()

	docID := content.MirrorDocumentID(p.ID, p.Metadata)
	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "PaymentsToContentService SyncProduct").
		Str(log.KeyPaymentsID, p.ID).
		Str(log.KeyDocumentID, docID).
		Logger()
	c = logger.WithContext(c)

	logger = logger.With().Str(log.KeyProcess, "finding existing product").Logger()
	logger.Trace().Msg("finding existing product")
	existing, exists, err := svc.findMirroredProduct(c, docID, p.ID)
	if err != nil {
		err = fmt.Errorf("failed finding product=%s with error=%w", docID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	if exists {
		docID = existing.ID
	}
	logger.Trace().Bool("exists", exists).Msg("found existing product")

	logger = logger.With().Str(log.KeyProcess, "resolving images").Logger()
	logger.Trace().Msg("resolving images")
	images, err := svc.resolveImages(c, p.Images, existing.Images)
	if err != nil {
		err = fmt.Errorf("failed resolving images of product=%s with error=%w", docID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger.Trace().Int("images", len(images)).Msg("resolved images")

	doc := content.Product{
		ID:                     docID,
		PaymentsProductID:      p.ID,
		Name:                   p.Name,
		Description:            p.Description,
		Slug:                   content.Slugify(p.Name),
		Brand:                  existing.Brand,
		Active:                 p.Active,
		Images:                 images,
		DefaultPriceID:         existing.DefaultPriceID,
		PriceIDs:               slices.Clone(existing.PriceIDs),
		PendingPaymentsPriceID: existing.PendingPaymentsPriceID,
		DeletedAt:              existing.DeletedAt,
		LastWriter:             content.WriterPayments,
	}
	if doc.PriceIDs == nil {
		doc.PriceIDs = []string{}
	}
	if brand, ok := p.Metadata[content.MetadataBrand]; ok {
		doc.Brand = brand
	}
	if p.Metadata[content.MetadataLastWriter] == string(content.WriterContent) && existing.Slug != "" {
		doc.Slug = existing.Slug
	}

	if p.DefaultPrice != "" {
		defaultPriceID := string(p.DefaultPrice)
		logger = logger.With().
			Str(log.KeyProcess, "resolving default price").
			Str(log.KeyPriceID, defaultPriceID).
			Logger()
		logger.Trace().Msg("resolving default price")
		price, err := svc.store.FindPriceByPaymentsID(c, defaultPriceID)
		switch {
		case err == nil:
			doc.DefaultPriceID = price.ID
			if !doc.HasPrice(price.ID) {
				doc.PriceIDs = append(doc.PriceIDs, price.ID)
			}
			if doc.PendingPaymentsPriceID == defaultPriceID {
				doc.PendingPaymentsPriceID = ""
			}
			logger.Trace().Msg("resolved default price")
		case isNotFound(err):
			doc.PendingPaymentsPriceID = defaultPriceID
			logger.Info().Msg("default price not synced yet marking it pending")
		default:
			err = fmt.Errorf("failed resolving default price=%s with error=%w", defaultPriceID, err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return "", err
		}
	}

	if exists && existing.SameContent(doc) {
		logger.Info().Str(log.KeySkippedReason, "unchanged").Msg("product unchanged skipping write")
		return OutcomeSkipped, nil
	}

	logger = logger.With().Str(log.KeyProcess, "saving product").Logger()
	logger.Trace().Msg("saving product")
	saved, err := svc.store.SaveProduct(c, doc)
	if err != nil {
		err = fmt.Errorf("failed saving product=%s with error=%w", docID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger.Info().Int64("revision", saved.Revision).Msg("saved product")

	invalidate(c, svc.cache, cache.ProductTags(p.ID)...)
	return OutcomeProcessed, nil
}

// lookupProduct finds the owning product of a price, retrying misses since
// the product event may still be in flight.
func (svc *PaymentsToContentService) lookupProduct(c context.Context, paymentsProductID string) (content.Product, error) {
	return retry.Do(c, svc.policy, func(c context.Context) (content.Product, error) {
		product, err := svc.store.FindProductByPaymentsID(c, paymentsProductID)
		if isNotFound(err) {
			return content.Product{}, retry.Retryable(err)
		}
		return product, err
	})
}

// attachPrice adds priceID to the product's prices and makes it the default
// when the product had none, was pending on it, or already used it.
func attachPrice(product content.Product, priceID string, paymentsPriceID string) (content.Product, bool) {
	updated := product
	updated.PriceIDs = slices.Clone(product.PriceIDs)
	if !updated.HasPrice(priceID) {
		updated.PriceIDs = append(updated.PriceIDs, priceID)
	}
	if updated.DefaultPriceID == "" || updated.PendingPaymentsPriceID == paymentsPriceID {
		updated.DefaultPriceID = priceID
	}
	if updated.PendingPaymentsPriceID == paymentsPriceID {
		updated.PendingPaymentsPriceID = ""
	}
	updated.LastWriter = content.WriterPayments
	return updated, !updated.SameContent(product)
}

// detachPrice removes priceID from the product and clears the default and
// pending references pointing at it.
func detachPrice(product content.Product, priceID string, paymentsPriceID string) (content.Product, bool) {
	updated := product
	updated.PriceIDs = slices.DeleteFunc(slices.Clone(product.PriceIDs), func(id string) bool {
		return id == priceID
	})
	if updated.DefaultPriceID == priceID {
		updated.DefaultPriceID = ""
	}
	if updated.PendingPaymentsPriceID == paymentsPriceID {
		updated.PendingPaymentsPriceID = ""
	}
	updated.LastWriter = content.WriterPayments
	return updated, !updated.SameContent(product)
}

func (svc *PaymentsToContentService) SyncPrice(c context.Context, p request.PaymentsPrice) (Outcome, error) {
	c, span := otel.Tracer.Start(c, "PaymentsToContentService SyncPrice")
	defer span.End()

	docID := content.MirrorDocumentID(p.ID, p.Metadata)
	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "PaymentsToContentService SyncPrice").
		Str(log.KeyPriceID, p.ID).
		Str(log.KeyPaymentsID, string(p.Product)).
		Str(log.KeyDocumentID, docID).
		Logger()
	c = logger.WithContext(c)

	logger = logger.With().Str(log.KeyProcess, "finding owning product").Logger()
	logger.Trace().Msg("finding owning product")
	product, err := svc.lookupProduct(c, string(p.Product))
	if err != nil {
		err = fmt.Errorf("failed finding product=%s of price=%s with error=%w", p.Product, p.ID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger = logger.With().Str(log.KeyProductID, product.ID).Logger()
	logger.Trace().Msg("found owning product")

	logger = logger.With().Str(log.KeyProcess, "finding existing price").Logger()
	existing, exists, err := svc.findMirroredPrice(c, docID, p.ID)
	if err != nil {
		err = fmt.Errorf("failed finding price=%s with error=%w", docID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	if exists {
		docID = existing.ID
		if existing.PaymentsPriceID != "" && existing.PaymentsPriceID != p.ID && !p.Active {
			logger.Info().
				Str(log.KeySkippedReason, "superseded").
				Msgf("price document now points at price=%s skipping", existing.PaymentsPriceID)
			return OutcomeSkipped, nil
		}
	}

	doc := content.Price{
		ID:              docID,
		PaymentsPriceID: p.ID,
		UnitAmount:      *p.UnitAmount,
		Currency:        p.Currency,
		ProductID:       product.ID,
		Active:          p.Active,
		DeletedAt:       existing.DeletedAt,
		LastWriter:      content.WriterPayments,
	}

	wrote := false
	if !exists || !existing.SameContent(doc) {
		logger = logger.With().Str(log.KeyProcess, "saving price").Logger()
		logger.Trace().Msg("saving price")
		if _, err = svc.store.SavePrice(c, doc); err != nil {
			err = fmt.Errorf("failed saving price=%s with error=%w", docID, err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return "", err
		}
		wrote = true
		logger.Info().Msg("saved price")
	}

	tags := cache.ProductTags(product.PaymentsProductID)
	if updated, changed := attachPrice(product, docID, p.ID); changed {
		logger = logger.With().Str(log.KeyProcess, "attaching price to product").Logger()
		logger.Trace().Msg("attaching price to product")
		if _, err = svc.store.SetProductPrices(c, updated); err != nil {
			err = fmt.Errorf("failed attaching price=%s to product=%s with error=%w", docID, product.ID, err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return "", err
		}
		wrote = true
		logger.Info().Msg("attached price to product")
	}

	logger = logger.With().Str(log.KeyProcess, "resolving pending products").Logger()
	logger.Trace().Msg("resolving pending products")
	pending, err := svc.store.FindProductsPendingPrice(c, p.ID)
	if err != nil {
		err = fmt.Errorf("failed finding products pending price=%s with error=%w", p.ID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	for _, other := range pending {
		if other.ID == product.ID {
			continue
		}
		updated, changed := attachPrice(other, docID, p.ID)
		if !changed {
			continue
		}
		if _, err = svc.store.SetProductPrices(c, updated); err != nil {
			err = fmt.Errorf("failed resolving pending price of product=%s with error=%w", other.ID, err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return "", err
		}
		wrote = true
		tags = append(tags, cache.ProductTag(other.PaymentsProductID))
		logger.Info().Str(log.KeyProductID, other.ID).Msg("resolved pending price of product")
	}

	if !wrote {
		logger.Info().Str(log.KeySkippedReason, "unchanged").Msg("price unchanged skipping write")
		return OutcomeSkipped, nil
	}
	invalidate(c, svc.cache, tags...)
	return OutcomeProcessed, nil
}

func (svc *PaymentsToContentService) DeleteProduct(c context.Context, p request.PaymentsDeleted) (Outcome, error) {
	c, span := otel.Tracer.Start(c, "PaymentsToContentService DeleteProduct")
	defer span.End()

	docID := content.MirrorDocumentID(p.ID, p.Metadata)
	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "PaymentsToContentService DeleteProduct").
		Str(log.KeyPaymentsID, p.ID).
		Str(log.KeyDocumentID, docID).
		Logger()
	c = logger.WithContext(c)

	existing, exists, err := svc.findMirroredProduct(c, docID, p.ID)
	if err != nil {
		err = fmt.Errorf("failed finding product=%s with error=%w", docID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	if !exists {
		logger.Info().Str(log.KeySkippedReason, "unknown").Msg("deleted product was never mirrored skipping")
		return OutcomeSkipped, nil
	}
	if existing.DeletedAt != nil && !existing.Active {
		logger.Info().Str(log.KeySkippedReason, "already deleted").Msg("product already deleted skipping")
		return OutcomeSkipped, nil
	}

	logger = logger.With().Str(log.KeyProcess, "soft deleting product").Logger()
	logger.Trace().Msg("soft deleting product")
	if _, err = svc.store.SoftDeleteProduct(c, existing.ID, content.WriterPayments); err != nil {
		err = fmt.Errorf("failed deleting product=%s with error=%w", existing.ID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger.Info().Msg("soft deleted product")

	invalidate(c, svc.cache, cache.ProductTags(p.ID)...)
	return OutcomeProcessed, nil
}

func (svc *PaymentsToContentService) DeletePrice(c context.Context, p request.PaymentsDeleted) (Outcome, error) {
	c, span := otel.Tracer.Start(c, "PaymentsToContentService DeletePrice")
	defer span.End()

	docID := content.MirrorDocumentID(p.ID, p.Metadata)
	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "PaymentsToContentService DeletePrice").
		Str(log.KeyPriceID, p.ID).
		Str(log.KeyDocumentID, docID).
		Logger()
	c = logger.WithContext(c)

	existing, exists, err := svc.findMirroredPrice(c, docID, p.ID)
	if err != nil {
		err = fmt.Errorf("failed finding price=%s with error=%w", docID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	if !exists {
		logger.Info().Str(log.KeySkippedReason, "unknown").Msg("deleted price was never mirrored skipping")
		return OutcomeSkipped, nil
	}
	if existing.PaymentsPriceID != "" && existing.PaymentsPriceID != p.ID {
		logger.Info().Str(log.KeySkippedReason, "superseded").Msg("price document was re-pointed skipping")
		return OutcomeSkipped, nil
	}

	wrote := false
	if existing.DeletedAt == nil || existing.Active {
		logger = logger.With().Str(log.KeyProcess, "soft deleting price").Logger()
		logger.Trace().Msg("soft deleting price")
		if _, err = svc.store.SoftDeletePrice(c, existing.ID, content.WriterPayments); err != nil {
			err = fmt.Errorf("failed deleting price=%s with error=%w", existing.ID, err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return "", err
		}
		wrote = true
		logger.Info().Msg("soft deleted price")
	}

	tags := []string{cache.TagProducts}
	product, err := svc.store.FindProduct(c, existing.ProductID)
	switch {
	case err == nil:
		if updated, changed := detachPrice(product, existing.ID, p.ID); changed {
			logger = logger.With().
				Str(log.KeyProcess, "detaching price from product").
				Str(log.KeyProductID, product.ID).
				Logger()
			logger.Trace().Msg("detaching price from product")
			if _, err = svc.store.SetProductPrices(c, updated); err != nil {
				err = fmt.Errorf("failed detaching price=%s from product=%s with error=%w", existing.ID, product.ID, err)
				inOtel.RecordError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				return "", err
			}
			wrote = true
			logger.Info().Msg("detached price from product")
		}
		tags = append(tags, cache.ProductTag(product.PaymentsProductID))
	case isNotFound(err):
		logger.Warn().Str(log.KeyProductID, existing.ProductID).Msg("owning product of deleted price not found")
	default:
		err = fmt.Errorf("failed finding product=%s with error=%w", existing.ProductID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}

	pending, err := svc.store.FindProductsPendingPrice(c, p.ID)
	if err != nil {
		err = fmt.Errorf("failed finding products pending price=%s with error=%w", p.ID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	for _, other := range pending {
		updated, changed := detachPrice(other, existing.ID, p.ID)
		if !changed {
			continue
		}
		if _, err = svc.store.SetProductPrices(c, updated); err != nil {
			err = fmt.Errorf("failed clearing pending price of product=%s with error=%w", other.ID, err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return "", err
		}
		wrote = true
		tags = append(tags, cache.ProductTag(other.PaymentsProductID))
	}

	if !wrote {
		logger.Info().Str(log.KeySkippedReason, "already deleted").Msg("price already deleted skipping")
		return OutcomeSkipped, nil
	}
	invalidate(c, svc.cache, tags...)
	return OutcomeProcessed, nil
}

func (svc *PaymentsToContentService) UpdateCheckoutStatus(
	c context.Context,
	sessionID string,
	status content.CheckoutStatus,
) (Outcome, error) {
	c, span := otel.Tracer.Start(c, "PaymentsToContentService UpdateCheckoutStatus")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "PaymentsToContentService UpdateCheckoutStatus").
		Str(log.KeySessionID, sessionID).
		Str("status", string(status)).
		Logger()

	logger.Trace().Msg("updating checkout session status")
	ok, err := svc.store.UpdateCheckoutSessionStatus(c, sessionID, status)
	if err != nil {
		err = fmt.Errorf("failed updating checkout session=%s with error=%w", sessionID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	if !ok {
		logger.Info().Str(log.KeySkippedReason, "unknown").Msg("checkout session not recorded skipping")
		return OutcomeSkipped, nil
	}
	logger.Info().Msg("updated checkout session status")
	return OutcomeProcessed, nil
}
