package mocks

//go:generate mockery --name CatalogReader --srcpkg github.com/freshtally/freshtally/internal/core/storage --output ./storage --outpkg storagemocks
//go:generate mockery --name CatalogWriter --srcpkg github.com/freshtally/freshtally/internal/core/storage --output ./storage --outpkg storagemocks
//go:generate mockery --name Dispatcher --srcpkg github.com/freshtally/freshtally/internal/ingestion --output ./ingestion --outpkg ingestionmocks
