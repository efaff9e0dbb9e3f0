package query

import (
	"context"

	v1 "github.com/aevon-lab/epcis-repository/internal/api/v1"
	epciserr "github.com/aevon-lab/epcis-repository/internal/core/errors"
	"github.com/aevon-lab/epcis-repository/internal/core/storage"
)

// masterDataRequest is the routed form of one SimpleMasterDataQuery.
type masterDataRequest struct {
	filter      storage.VocabularyFilter
	maxCount    int
	hasMaxCount bool
}

func parseMasterDataParams(params v1.QueryParams) (*masterDataRequest, error) {
	req := &masterDataRequest{}
	seen := make(map[string]bool, len(params))

	for _, param := range params {
		if seen[param.Name] {
			return nil, epciserr.QueryParameter("parameter %s is given more than once", param.Name)
		}
		seen[param.Name] = true
		if param.Value.IsMissing() {
			return nil, epciserr.QueryParameter("parameter %s has no value", param.Name)
		}

		switch param.Name {
		case "vocabularyName":
			req.filter.Types = param.Value.Strings()
		case "EQ_name":
			req.filter.URIs = param.Value.Strings()
		case "WD_name":
			req.filter.URIPrefixes = param.Value.Strings()
		case "includeAttributes":
			b, err := param.Value.Bool()
			if err != nil {
				return nil, epciserr.QueryParameter("includeAttributes: %v", err)
			}
			req.filter.IncludeAttributes = b
		case "attributeNames":
			req.filter.AttributeNames = param.Value.Strings()
		case "maxElementCount":
			n, err := positiveInt(param.Name, param.Value)
			if err != nil {
				return nil, err
			}
			req.maxCount, req.hasMaxCount = n, true
		default:
			return nil, epciserr.QueryParameter("unknown parameter %s", param.Name)
		}
	}

	if len(req.filter.AttributeNames) > 0 && !req.filter.IncludeAttributes {
		return nil, epciserr.QueryParameter("attributeNames requires includeAttributes=true")
	}
	return req, nil
}

func (e *Engine) pollMasterData(ctx context.Context, params v1.QueryParams) (*v1.QueryResults, error) {
	req, err := parseMasterDataParams(params)
	if err != nil {
		return nil, err
	}

	ceiling := e.opts.MaxResultRows
	if req.hasMaxCount && (ceiling <= 0 || req.maxCount < ceiling) {
		ceiling = req.maxCount
	}
	if ceiling > 0 {
		req.filter.Limit = ceiling + 1
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	elements, err := e.vocab.QueryVocabulary(ctx, req.filter)
	if err != nil {
		return nil, epciserr.Implementation(err, "master data query failed")
	}
	if ceiling > 0 && len(elements) > ceiling {
		return nil, epciserr.QueryTooLarge("query returned more than %d vocabulary elements", ceiling)
	}

	return &v1.QueryResults{
		QueryName:          v1.SimpleMasterDataQuery,
		VocabularyElements: elements,
	}, nil
}
