package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/protein/supplement-bot/internal/domain"
	"github.com/protein/supplement-bot/internal/service"
	"github.com/protein/supplement-bot/internal/store"
)

var _ = Describe("Reconciler", func() {
	var (
		sharers    *mockSharerStore
		curations  *mockCurationStore
		reconciler service.Reconciler
		payload    domain.CurationPayload
	)

	BeforeEach(func() {
		sharers = &mockSharerStore{}
		curations = &mockCurationStore{}
		reconciler = service.NewReconciler(sharers, curations, nil)
		payload = domain.CurationPayload{
			ID:    "1100000000000000001",
			Title: "Protein folding at scale",
			Link:  "https://blog.example.com/folding",
			Sharer: domain.Sharer{
				ExternalID: "200000000000000001",
				Handle:     "ada#0001",
			},
		}
	})

	Context("when the sharer already has a row", func() {
		BeforeEach(func() {
			sharers.findFn = func(ctx context.Context, externalID string) (*domain.SharerRecord, error) {
				return &domain.SharerRecord{RecordID: "recExisting", ExternalID: externalID, Handle: "ada#0001"}, nil
			}
		})

		It("binds the existing record without creating a new one", func() {
			recordID, err := reconciler.Commit(context.Background(), payload)
			Expect(err).NotTo(HaveOccurred())
			Expect(recordID).NotTo(BeEmpty())
			Expect(sharers.createdRecords()).To(BeEmpty())

			committed := curations.committedPayloads()
			Expect(committed).To(HaveLen(1))
			Expect(committed[0].Sharer.RecordID).To(Equal("recExisting"))
		})
	})

	Context("when the sharer is unknown", func() {
		It("creates the sharer and binds the fresh record id", func() {
			recordID, err := reconciler.Commit(context.Background(), payload)
			Expect(err).NotTo(HaveOccurred())
			Expect(recordID).To(Equal("recCuration1"))

			created := sharers.createdRecords()
			Expect(created).To(HaveLen(1))
			Expect(created[0].ExternalID).To(Equal("200000000000000001"))
			Expect(created[0].Handle).To(Equal("ada#0001"))

			committed := curations.committedPayloads()
			Expect(committed).To(HaveLen(1))
			Expect(committed[0].Sharer.RecordID).To(Equal(created[0].RecordID))
		})

		It("does not commit the curation when the sharer write fails", func() {
			sharers.createFn = func(ctx context.Context, handle, externalID string) (*domain.SharerRecord, error) {
				return nil, errors.New("422 from the record store")
			}

			_, err := reconciler.Commit(context.Background(), payload)
			Expect(err).To(MatchError(ContainSubstring("creating sharer")))
			Expect(curations.committedPayloads()).To(BeEmpty())
		})
	})

	Context("when the sharer lookup fails outright", func() {
		It("stops before touching either table", func() {
			sharers.findFn = func(ctx context.Context, externalID string) (*domain.SharerRecord, error) {
				return nil, errors.New("timeout")
			}

			_, err := reconciler.Commit(context.Background(), payload)
			Expect(err).To(MatchError(ContainSubstring("resolving sharer")))
			Expect(sharers.createdRecords()).To(BeEmpty())
			Expect(curations.committedPayloads()).To(BeEmpty())
		})
	})

	Context("when the curation write fails", func() {
		It("returns the error and leaves the created sharer in place", func() {
			curations.createFn = func(ctx context.Context, p domain.CurationPayload) (string, error) {
				return "", errors.New("rate limited")
			}

			_, err := reconciler.Commit(context.Background(), payload)
			Expect(err).To(MatchError(ContainSubstring("committing curation record")))
			// The sharer row created on the way in is not rolled back.
			Expect(sharers.createdRecords()).To(HaveLen(1))
		})
	})

	Context("when two payloads from the same new author commit back to back", func() {
		It("creates a sharer row per commit", func() {
			// FindSharer keeps answering not-found; the store has no
			// uniqueness guard, so both commits insert.
			_, err := reconciler.Commit(context.Background(), payload)
			Expect(err).NotTo(HaveOccurred())
			_, err = reconciler.Commit(context.Background(), payload)
			Expect(err).NotTo(HaveOccurred())
			Expect(sharers.createdRecords()).To(HaveLen(2))
		})
	})

	It("does not check for a duplicate curation before writing", func() {
		_, err := reconciler.Commit(context.Background(), payload)
		Expect(err).NotTo(HaveOccurred())
		_, err = reconciler.Commit(context.Background(), payload)
		Expect(err).NotTo(HaveOccurred())
		Expect(curations.committedPayloads()).To(HaveLen(2))
	})

	It("treats the not-found sentinel as create, not as failure", func() {
		sharers.findFn = func(ctx context.Context, externalID string) (*domain.SharerRecord, error) {
			return nil, store.ErrNotFound
		}

		_, err := reconciler.Commit(context.Background(), payload)
		Expect(err).NotTo(HaveOccurred())
		Expect(sharers.createdRecords()).To(HaveLen(1))
	})
})
