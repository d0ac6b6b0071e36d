package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alturino/commercesync/internal/cache"
	"github.com/Alturino/commercesync/internal/content"
	inErrors "github.com/Alturino/commercesync/internal/errors"
	"github.com/Alturino/commercesync/internal/log"
	inOtel "github.com/Alturino/commercesync/internal/otel"
	"github.com/Alturino/commercesync/internal/payments"
	"github.com/Alturino/commercesync/sync/internal/otel"
	"github.com/Alturino/commercesync/sync/pkg/request"
)

// ContentToPaymentsService pushes content documents to the payments
// provider.
type ContentToPaymentsService struct {
	store    ContentStore
	provider PaymentsProvider
	cache    CacheInvalidator
	now      func() time.Time
}

func NewContentToPaymentsService(
	store ContentStore,
	provider PaymentsProvider,
	cache CacheInvalidator,
) *ContentToPaymentsService {
	return &ContentToPaymentsService{store: store, provider: provider, cache: cache, now: time.Now}
}

func contentMetadata(docID string, revision int64) map[string]string {
	return map[string]string{
		content.MetadataContentID:       docID,
		content.MetadataLastWriter:      string(content.WriterContent),
		content.MetadataContentRevision: strconv.FormatInt(revision, 10),
	}
}

func (svc *ContentToPaymentsService) HandleEvent(c context.Context, event request.ContentEvent) (Outcome, error) {
	c, span := otel.Tracer.Start(c, "ContentToPaymentsService HandleEvent")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "ContentToPaymentsService HandleEvent").
		Str(log.KeyTransition, event.Transition).
		Logger()

	if event.Document == nil {
		logger.Info().Msg("no document to process")
		return OutcomeIgnored, nil
	}
	doc := *event.Document
	logger = logger.With().
		Str(log.KeyDocumentID, doc.ID).
		Str(log.KeyDocumentType, doc.Type).
		Logger()
	c = logger.WithContext(c)

	if doc.Type != request.DocumentTypeProduct && doc.Type != request.DocumentTypePrice {
		logger.Info().Msgf("document type=%s is not synced", doc.Type)
		return OutcomeIgnored, nil
	}

	var (
		outcome Outcome
		err     error
	)
	switch event.Transition {
	case request.TransitionAppear, request.TransitionUpdate:
		outcome, err = svc.syncDocument(c, doc)
	case request.TransitionDisappear:
		if doc.Type == request.DocumentTypeProduct {
			outcome, err = svc.ArchiveProduct(c, doc.ID, doc.PaymentsProductID)
		} else {
			outcome, err = svc.ArchivePrice(c, doc.ID, doc.PaymentsPriceID)
		}
	default:
		logger.Warn().Msgf("unhandled transition=%q attempting sync", event.Transition)
		outcome, err = svc.syncDocument(c, doc)
	}
	if err != nil {
		err = fmt.Errorf("failed handling %s of document=%s with error=%w", event.Transition, doc.ID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger.Info().Str("outcome", string(outcome)).Msg("handled content event")
	return outcome, nil
}

func (svc *ContentToPaymentsService) syncDocument(c context.Context, doc request.ContentDocument) (Outcome, error) {
	if doc.Type == request.DocumentTypeProduct {
		product, err := doc.ProductDocument(c)
		if err != nil {
			return "", err
		}
		return svc.SyncProduct(c, product)
	}
	price, err := doc.PriceDocument(c)
	if err != nil {
		return "", err
	}
	return svc.SyncPrice(c, price)
}

// SyncProduct pushes a product document the content store changed.
// Documents last written by the payments sync are not pushed back.
func (svc *ContentToPaymentsService) SyncProduct(c context.Context, doc content.Product) (Outcome, error) {
	return svc.pushProduct(c, doc, false)
}

// SyncStoredProduct pushes the stored product id regardless of its last
// writer.
func (svc *ContentToPaymentsService) SyncStoredProduct(c context.Context, id string) (Outcome, error) {
	doc, err := svc.store.FindProduct(c, id)
	if err != nil {
		return "", err
	}
	return svc.pushProduct(c, doc, true)
}

func (svc *ContentToPaymentsService) pushProduct(c context.Context, doc content.Product, force bool) (Outcome, error) {
	c, span := otel.Tracer.Start(c, "ContentToPaymentsService pushProduct")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "ContentToPaymentsService pushProduct").
		Str(log.KeyDocumentID, doc.ID).
		Str(log.KeyPaymentsID, doc.PaymentsProductID).
		Logger()
	c = logger.WithContext(c)

	if !force && doc.LastWriter == content.WriterPayments {
		logger.Info().Str(log.KeySkippedReason, "written by payments sync").Msg("skipping product push")
		return OutcomeSkipped, nil
	}

	logger = logger.With().Str(log.KeyProcess, "resolving image urls").Logger()
	logger.Trace().Msg("resolving image urls")
	urls := make([]string, 0, len(doc.Images))
	for _, image := range doc.Images {
		asset, err := svc.store.FindImageAsset(c, image.AssetID)
		if isNotFound(err) {
			logger.Warn().Str("assetId", image.AssetID).Msg("image asset not found skipping image")
			continue
		}
		if err != nil {
			err = fmt.Errorf("failed resolving image asset=%s with error=%w", image.AssetID, err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return "", err
		}
		urls = append(urls, asset.URL)
	}
	logger.Trace().Int("images", len(urls)).Msg("resolved image urls")

	metadata := contentMetadata(doc.ID, doc.Revision)
	metadata[content.MetadataBrand] = doc.Brand
	input := payments.ProductInput{
		Name:        doc.Name,
		Description: doc.Description,
		Images:      urls,
		Active:      doc.Active,
		Metadata:    metadata,
	}

	paymentsID := doc.PaymentsProductID
	if paymentsID == "" {
		logger = logger.With().Str(log.KeyProcess, "creating payments product").Logger()
		logger.Trace().Msg("creating payments product")
		created, err := svc.provider.CreateProduct(c, input)
		if err != nil {
			err = fmt.Errorf("failed creating payments product for document=%s with error=%w", doc.ID, err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return "", err
		}
		paymentsID = created.ID
		logger = logger.With().Str(log.KeyPaymentsID, paymentsID).Logger()
		logger.Info().Msg("created payments product")

		logger = logger.With().Str(log.KeyProcess, "persisting payments product id").Logger()
		_, err = svc.store.SetProductPaymentsID(c, doc.ID, paymentsID, content.WriterPayments)
		if isNotFound(err) {
			doc.PaymentsProductID = paymentsID
			doc.LastWriter = content.WriterPayments
			_, err = svc.store.SaveProduct(c, doc)
		}
		if err != nil {
			err = fmt.Errorf("failed persisting payments id=%s on document=%s with error=%w", paymentsID, doc.ID, err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return "", err
		}
		logger.Info().Msg("persisted payments product id")
	} else {
		logger = logger.With().Str(log.KeyProcess, "updating payments product").Logger()
		logger.Trace().Msg("updating payments product")
		if _, err := svc.provider.UpdateProduct(c, paymentsID, input); err != nil {
			err = fmt.Errorf("failed updating payments product=%s with error=%w", paymentsID, err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return "", err
		}
		logger.Info().Msg("updated payments product")
	}

	invalidate(c, svc.cache, cache.ProductTags(paymentsID)...)
	return OutcomeProcessed, nil
}

// SyncPrice pushes a price document the content store changed. Payments
// prices are immutable: an amount or currency change creates a replacement
// and archives the old price.
func (svc *ContentToPaymentsService) SyncPrice(c context.Context, doc content.Price) (Outcome, error) {
	return svc.pushPrice(c, doc, false)
}

func (svc *ContentToPaymentsService) SyncStoredPrice(c context.Context, id string) (Outcome, error) {
	doc, err := svc.store.FindPrice(c, id)
	if err != nil {
		return "", err
	}
	return svc.pushPrice(c, doc, true)
}

func (svc *ContentToPaymentsService) persistPriceID(c context.Context, doc content.Price, paymentsPriceID string) error {
	_, err := svc.store.SetPricePaymentsID(c, doc.ID, paymentsPriceID, content.WriterPayments)
	if isNotFound(err) {
		doc.PaymentsPriceID = paymentsPriceID
		doc.LastWriter = content.WriterPayments
		_, err = svc.store.SavePrice(c, doc)
	}
	if err != nil {
		return fmt.Errorf("failed persisting payments id=%s on document=%s with error=%w", paymentsPriceID, doc.ID, err)
	}
	return nil
}

func (svc *ContentToPaymentsService) pushPrice(c context.Context, doc content.Price, force bool) (Outcome, error) {
	c, span := otel.Tracer.Start(c, "ContentToPaymentsService pushPrice")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "ContentToPaymentsService pushPrice").
		Str(log.KeyDocumentID, doc.ID).
		Str(log.KeyPriceID, doc.PaymentsPriceID).
		Str(log.KeyProductID, doc.ProductID).
		Logger()
	c = logger.WithContext(c)

	if !force && doc.LastWriter == content.WriterPayments {
		logger.Info().Str(log.KeySkippedReason, "written by payments sync").Msg("skipping price push")
		return OutcomeSkipped, nil
	}

	logger = logger.With().Str(log.KeyProcess, "finding owning product").Logger()
	logger.Trace().Msg("finding owning product")
	product, err := svc.store.FindProduct(c, doc.ProductID)
	if err != nil && !isNotFound(err) {
		err = fmt.Errorf("failed finding product=%s with error=%w", doc.ProductID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	if err != nil || product.PaymentsProductID == "" {
		err = fmt.Errorf("failed pushing price=%s with error=%w", doc.ID, inErrors.ErrProductNotSynced)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger.Trace().Str(log.KeyPaymentsID, product.PaymentsProductID).Msg("found owning product")

	metadata := contentMetadata(doc.ID, doc.Revision)
	create := payments.PriceInput{
		ProductID:  product.PaymentsProductID,
		UnitAmount: doc.UnitAmount,
		Currency:   doc.Currency,
		Active:     doc.Active,
		Metadata:   metadata,
	}

	if doc.PaymentsPriceID == "" {
		logger = logger.With().Str(log.KeyProcess, "creating payments price").Logger()
		logger.Trace().Msg("creating payments price")
		created, err := svc.provider.CreatePrice(c, create)
		if err != nil {
			err = fmt.Errorf("failed creating payments price for document=%s with error=%w", doc.ID, err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return "", err
		}
		logger = logger.With().Str(log.KeyPriceID, created.ID).Logger()
		logger.Info().Msg("created payments price")

		if err = svc.persistPriceID(c, doc, created.ID); err != nil {
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return "", err
		}
		logger.Info().Msg("persisted payments price id")

		invalidate(c, svc.cache, cache.ProductTags(product.PaymentsProductID)...)
		return OutcomeProcessed, nil
	}

	logger = logger.With().Str(log.KeyProcess, "getting payments price").Logger()
	logger.Trace().Msg("getting payments price")
	current, err := svc.provider.GetPrice(c, doc.PaymentsPriceID)
	if err != nil {
		err = fmt.Errorf("failed getting payments price=%s with error=%w", doc.PaymentsPriceID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}

	if current.UnitAmount == doc.UnitAmount && current.Currency == doc.Currency {
		logger = logger.With().Str(log.KeyProcess, "updating payments price").Logger()
		logger.Trace().Msg("updating payments price")
		_, err = svc.provider.UpdatePrice(c, doc.PaymentsPriceID, payments.PriceUpdate{
			Active:   doc.Active,
			Metadata: metadata,
		})
		if err != nil {
			err = fmt.Errorf("failed updating payments price=%s with error=%w", doc.PaymentsPriceID, err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return "", err
		}
		logger.Info().Msg("updated payments price")

		invalidate(c, svc.cache, cache.ProductTags(product.PaymentsProductID)...)
		return OutcomeProcessed, nil
	}

	logger = logger.With().Str(log.KeyProcess, "replacing payments price").Logger()
	logger.Info().
		Int64("fromAmount", current.UnitAmount).
		Int64("toAmount", doc.UnitAmount).
		Msg("amount or currency changed replacing payments price")
	replacement, err := svc.provider.CreatePrice(c, create)
	if err != nil {
		err = fmt.Errorf("failed creating replacement for payments price=%s with error=%w", doc.PaymentsPriceID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger = logger.With().Str("replacementPriceId", replacement.ID).Logger()

	if product.DefaultPriceID == doc.ID {
		if err = svc.provider.SetDefaultPrice(c, product.PaymentsProductID, replacement.ID); err != nil {
			err = fmt.Errorf("failed moving default price to=%s with error=%w", replacement.ID, err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return "", err
		}
		logger.Info().Msg("moved default price to replacement")
	}

	if err = svc.persistPriceID(c, doc, replacement.ID); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}

	if err = svc.provider.ArchivePrice(c, doc.PaymentsPriceID, metadata); err != nil {
		err = fmt.Errorf("failed archiving replaced payments price=%s with error=%w", doc.PaymentsPriceID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger.Info().Msg("replaced payments price")

	invalidate(c, svc.cache, cache.ProductTags(product.PaymentsProductID)...)
	return OutcomeProcessed, nil
}

func deletionMetadata(docID string, at time.Time) map[string]string {
	return map[string]string{
		content.MetadataContentID: docID,
		content.MetadataDeleted:   "true",
		content.MetadataDeletedAt: at.UTC().Format(time.RFC3339),
	}
}

// ArchiveProduct deactivates the payments product of a document removed from
// the content store. paymentsProductID may be empty, in which case the
// stored document is consulted.
func (svc *ContentToPaymentsService) ArchiveProduct(c context.Context, docID string, paymentsProductID string) (Outcome, error) {
	c, span := otel.Tracer.Start(c, "ContentToPaymentsService ArchiveProduct")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "ContentToPaymentsService ArchiveProduct").
		Str(log.KeyDocumentID, docID).
		Logger()

	if paymentsProductID == "" {
		stored, err := svc.store.FindProduct(c, docID)
		if err != nil && !isNotFound(err) {
			err = fmt.Errorf("failed finding product=%s with error=%w", docID, err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return "", err
		}
		paymentsProductID = stored.PaymentsProductID
	}
	if paymentsProductID == "" {
		logger.Info().Str(log.KeySkippedReason, "not synced").Msg("product has no payments id skipping archive")
		return OutcomeSkipped, nil
	}
	logger = logger.With().Str(log.KeyPaymentsID, paymentsProductID).Logger()

	logger.Trace().Msg("archiving payments product")
	if err := svc.provider.ArchiveProduct(c, paymentsProductID, deletionMetadata(docID, svc.now())); err != nil {
		err = fmt.Errorf("failed archiving payments product=%s with error=%w", paymentsProductID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger.Info().Msg("archived payments product")

	invalidate(c, svc.cache, cache.ProductTags(paymentsProductID)...)
	return OutcomeProcessed, nil
}

func (svc *ContentToPaymentsService) ArchivePrice(c context.Context, docID string, paymentsPriceID string) (Outcome, error) {
	c, span := otel.Tracer.Start(c, "ContentToPaymentsService ArchivePrice")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "ContentToPaymentsService ArchivePrice").
		Str(log.KeyDocumentID, docID).
		Logger()

	tags := []string{cache.TagProducts}
	stored, err := svc.store.FindPrice(c, docID)
	switch {
	case err == nil:
		if paymentsPriceID == "" {
			paymentsPriceID = stored.PaymentsPriceID
		}
		if product, err := svc.store.FindProduct(c, stored.ProductID); err == nil {
			tags = cache.ProductTags(product.PaymentsProductID)
		}
	case !errors.Is(err, inErrors.ErrNotFound):
		err = fmt.Errorf("failed finding price=%s with error=%w", docID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	if paymentsPriceID == "" {
		logger.Info().Str(log.KeySkippedReason, "not synced").Msg("price has no payments id skipping archive")
		return OutcomeSkipped, nil
	}
	logger = logger.With().Str(log.KeyPriceID, paymentsPriceID).Logger()

	logger.Trace().Msg("archiving payments price")
	if err = svc.provider.ArchivePrice(c, paymentsPriceID, deletionMetadata(docID, svc.now())); err != nil {
		err = fmt.Errorf("failed archiving payments price=%s with error=%w", paymentsPriceID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger.Info().Msg("archived payments price")

	invalidate(c, svc.cache, tags...)
	return OutcomeProcessed, nil
}
