package mocks

//go:generate mockery --name EventStore --srcpkg github.com/aevon-lab/epcis-repository/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter --filename event_store.go
//go:generate mockery --name VocabularyStore --srcpkg github.com/aevon-lab/epcis-repository/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter --filename vocabulary_store.go
//go:generate mockery --name SubscriptionStore --srcpkg github.com/aevon-lab/epcis-repository/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter --filename subscription_store.go
