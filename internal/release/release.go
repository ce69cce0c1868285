// Package release publishes tarballs to a GitHub release.
//
// Publishing is create-or-update: the release for a tag is looked up and
// created only when absent, and an asset upload replaces any existing
// asset with the same name. Re-running publish for a tag is therefore
// idempotent.
package release

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

// Info identifies the release destination.
type Info struct {
	// Owner is the repository owner.
	Owner string

	// Repo is the repository name.
	Repo string

	// TargetCommitish is the commitish a newly created release points at.
	// Empty uses the repository default branch.
	TargetCommitish string

	// Draft creates new releases as drafts.
	Draft bool
}

// releasesService is the subset of the GitHub releases API the publisher
// uses. *github.RepositoriesService implements it; tests provide a mock.
type releasesService interface {
	GetReleaseByTag(ctx context.Context, owner, repo, tag string) (*github.RepositoryRelease, *github.Response, error)
	CreateRelease(ctx context.Context, owner, repo string, release *github.RepositoryRelease) (*github.RepositoryRelease, *github.Response, error)
	ListReleaseAssets(ctx context.Context, owner, repo string, id int64, opts *github.ListOptions) ([]*github.ReleaseAsset, *github.Response, error)
	DeleteReleaseAsset(ctx context.Context, owner, repo string, id int64) (*github.Response, error)
	UploadReleaseAsset(ctx context.Context, owner, repo string, id int64, opt *github.UploadOptions, file *os.File) (*github.ReleaseAsset, *github.Response, error)
}

// Publisher creates or updates the release for a tag and attaches assets.
//
// Create with [NewPublisher]. The API client is built lazily on first
// publish so token validation happens where the error can carry context.
type Publisher struct {
	info     Info
	token    string
	releases releasesService
}

// NewPublisher creates a [Publisher] authenticating with the given token.
func NewPublisher(info Info, token string) *Publisher {
	return &Publisher{info: info, token: token}
}

// newPublisherWithService creates a Publisher with an injected API
// implementation. Used by tests.
func newPublisherWithService(info Info, svc releasesService) *Publisher {
	return &Publisher{info: info, releases: svc}
}

func (p *Publisher) service(ctx context.Context) (releasesService, error) {
	if p.releases != nil {
		return p.releases, nil
	}
	if p.info.Owner == "" || p.info.Repo == "" {
		return nil, fmt.Errorf("release destination not configured: set release.owner and release.repo")
	}
	if p.token == "" {
		return nil, fmt.Errorf("release token not set")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: p.token})
	client := github.NewClient(oauth2.NewClient(ctx, ts))
	p.releases = client.Repositories
	return p.releases, nil
}

// Publish attaches the given asset files to the release for tag, creating
// the release first when it does not exist.
//
// An existing asset whose name matches an uploaded file is deleted before
// the upload, so re-publishing a tag replaces its assets.
func (p *Publisher) Publish(ctx context.Context, tag string, assetPaths []string) error {
	svc, err := p.service(ctx)
	if err != nil {
		return err
	}

	rel, err := p.ensureRelease(ctx, svc, tag)
	if err != nil {
		return err
	}

	existing, err := p.existingAssets(ctx, svc, rel.GetID())
	if err != nil {
		return err
	}

	for _, assetPath := range assetPaths {
		name := filepath.Base(assetPath)
		if id, ok := existing[name]; ok {
			if _, err := svc.DeleteReleaseAsset(ctx, p.info.Owner, p.info.Repo, id); err != nil {
				return fmt.Errorf("failed to delete existing asset %s: %w", name, err)
			}
		}

		f, err := os.Open(assetPath)
		if err != nil {
			return fmt.Errorf("failed to open asset %s: %w", assetPath, err)
		}
		_, _, err = svc.UploadReleaseAsset(ctx, p.info.Owner, p.info.Repo, rel.GetID(),
			&github.UploadOptions{Name: name}, f)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to upload asset %s: %w", name, err)
		}
	}

	return nil
}

// ensureRelease returns the release for tag, creating it when absent.
func (p *Publisher) ensureRelease(ctx context.Context, svc releasesService, tag string) (*github.RepositoryRelease, error) {
	rel, resp, err := svc.GetReleaseByTag(ctx, p.info.Owner, p.info.Repo, tag)
	if err == nil {
		return rel, nil
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		return nil, fmt.Errorf("failed to look up release for %s: %w", tag, err)
	}

	newRel := &github.RepositoryRelease{
		TagName: github.Ptr(tag),
		Name:    github.Ptr(tag),
		Draft:   github.Ptr(p.info.Draft),
	}
	if p.info.TargetCommitish != "" {
		newRel.TargetCommitish = github.Ptr(p.info.TargetCommitish)
	}

	rel, _, err = svc.CreateRelease(ctx, p.info.Owner, p.info.Repo, newRel)
	if err != nil {
		return nil, fmt.Errorf("failed to create release for %s: %w", tag, err)
	}
	return rel, nil
}

// existingAssets returns the release's current assets as name -> asset ID.
func (p *Publisher) existingAssets(ctx context.Context, svc releasesService, releaseID int64) (map[string]int64, error) {
	assets := map[string]int64{}
	opts := &github.ListOptions{PerPage: 100}
	for {
		page, resp, err := svc.ListReleaseAssets(ctx, p.info.Owner, p.info.Repo, releaseID, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list release assets: %w", err)
		}
		for _, a := range page {
			assets[a.GetName()] = a.GetID()
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return assets, nil
}
