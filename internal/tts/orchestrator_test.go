package tts

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/visionvoice/visionvoice/internal/mix"
	"github.com/visionvoice/visionvoice/internal/provider"
	"github.com/visionvoice/visionvoice/internal/storage"
	"github.com/visionvoice/visionvoice/internal/textproc"
	"github.com/visionvoice/visionvoice/internal/track"
	"github.com/visionvoice/visionvoice/internal/usage"
	"github.com/visionvoice/visionvoice/pkg/types"
)

const testCDN = "https://cdn.example.com"

type testEnv struct {
	orch     *Orchestrator
	repo     track.Repository
	store    storage.Adapter
	openai   *provider.StubTTSProvider
	eleven   *provider.StubTTSProvider
	invoker  *mix.MemoryInvoker
	recorder *usage.MemoryRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := storage.NewLocalAdapter(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalAdapter failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	repo := track.NewRepository(store)
	openai := &provider.StubTTSProvider{ProviderName: provider.ProviderOpenAI}
	eleven := &provider.StubTTSProvider{ProviderName: provider.ProviderElevenLabs}
	recorder := &usage.MemoryRecorder{}
	synth := provider.NewSynthesizer(map[string]provider.TTSProvider{
		provider.ProviderOpenAI:     openai,
		provider.ProviderElevenLabs: eleven,
	}, recorder)

	invoker := &mix.MemoryInvoker{}
	trigger := mix.NewTrigger(repo, invoker, testCDN+"/site-assets/audio/mixing-tracks/Ocean-Waves-1.mp3")

	return &testEnv{
		orch:     NewOrchestrator(repo, synth, store, trigger, "test-bucket", testCDN),
		repo:     repo,
		store:    store,
		openai:   openai,
		eleven:   eleven,
		invoker:  invoker,
		recorder: recorder,
	}
}

func standardRequest(sections ...types.SectionInput) *types.GenerationRequest {
	return &types.GenerationRequest{
		OwnerID:    "owner-1",
		DocumentID: "doc-1",
		Sections:   sections,
		VoiceID:    "alloy",
		Format:     "mp3",
		Variant:    types.VariantStandard,
	}
}

func TestGenerate_EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	text := "I am creating the life I choose, and every day it becomes more real."

	report, err := env.orch.Generate(ctx, standardRequest(types.SectionInput{SectionKey: "forward", Text: text}))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(report.Results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(report.Results))
	}
	res := report.Results[0]
	if res.Status != types.OutcomeGenerated {
		t.Fatalf("Status = %s, want generated", res.Status)
	}
	if !strings.HasSuffix(res.AudioURL, ".mp3") {
		t.Errorf("AudioURL %q must end in .mp3", res.AudioURL)
	}
	if !strings.HasPrefix(res.AudioURL, testCDN+"/user-uploads/owner-1/visions/audio/doc-1/forward-") {
		t.Errorf("Unexpected AudioURL: %s", res.AudioURL)
	}

	set, err := env.repo.FindSet(ctx, "doc-1", types.VariantStandard, "alloy")
	if err != nil || set == nil {
		t.Fatalf("Expected audio set to be created: %v", err)
	}
	if set.Description != "Voice only narration" {
		t.Errorf("Set description = %q", set.Description)
	}
	if set.Name != "Standard Version" {
		t.Errorf("Set name = %q", set.Name)
	}

	rec, err := env.repo.FindTrack(ctx, "doc-1", set.ID, "forward")
	if err != nil || rec == nil {
		t.Fatalf("Expected track record: %v", err)
	}
	if rec.ContentHash != textproc.Fingerprint(text) {
		t.Error("Stored content hash must equal fingerprint of the section text")
	}
	if rec.Status != types.TrackCompleted {
		t.Errorf("Track status = %s", rec.Status)
	}
	if rec.MixStatus != types.MixNotRequired {
		t.Errorf("MixStatus = %s, want not_required", rec.MixStatus)
	}

	// Audio payload actually landed in the blob store
	exists, err := env.store.Exists(ctx, rec.StorageKey)
	if err != nil || !exists {
		t.Errorf("Expected uploaded audio at %s", rec.StorageKey)
	}

	if report.TotalCharacters == 0 || report.SectionCharacters["forward"] == 0 {
		t.Error("Report must carry character accounting")
	}
	if env.recorder.Total() != report.TotalCharacters {
		t.Errorf("Usage total %d != report total %d", env.recorder.Total(), report.TotalCharacters)
	}
}

func TestGenerate_IdempotentSkip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	section := types.SectionInput{SectionKey: "forward", Text: "I am grateful for this day."}

	first, err := env.orch.Generate(ctx, standardRequest(section))
	if err != nil {
		t.Fatalf("First generate failed: %v", err)
	}
	firstURL := first.Results[0].AudioURL

	second, err := env.orch.Generate(ctx, standardRequest(section))
	if err != nil {
		t.Fatalf("Second generate failed: %v", err)
	}

	if second.Results[0].Status != types.OutcomeSkipped {
		t.Fatalf("Second call status = %s, want skipped", second.Results[0].Status)
	}
	if second.Results[0].AudioURL != firstURL {
		t.Error("Skip must reuse the existing audio URL")
	}
	if len(env.openai.Calls()) != 1 {
		t.Errorf("Second call must make no provider calls, total calls = %d", len(env.openai.Calls()))
	}
}

func TestGenerate_WhitespaceInvariantSkip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.orch.Generate(ctx, standardRequest(
		types.SectionInput{SectionKey: "health", Text: "I breathe deeply and feel strong."},
	)); err != nil {
		t.Fatalf("First generate failed: %v", err)
	}

	// Whitespace-only reformatting must not regenerate
	report, err := env.orch.Generate(ctx, standardRequest(
		types.SectionInput{SectionKey: "health", Text: "  I breathe   deeply\nand feel strong. "},
	))
	if err != nil {
		t.Fatalf("Second generate failed: %v", err)
	}
	if report.Results[0].Status != types.OutcomeSkipped {
		t.Errorf("Whitespace change must skip, got %s", report.Results[0].Status)
	}

	// A visible content change must regenerate
	report, err = env.orch.Generate(ctx, standardRequest(
		types.SectionInput{SectionKey: "health", Text: "I breathe deeply and feel powerful."},
	))
	if err != nil {
		t.Fatalf("Third generate failed: %v", err)
	}
	if report.Results[0].Status != types.OutcomeGenerated {
		t.Errorf("Content change must regenerate, got %s", report.Results[0].Status)
	}
}

func TestGenerate_RegenerationPreservesTrackID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.orch.Generate(ctx, standardRequest(
		types.SectionInput{SectionKey: "forward", Text: "Version one."},
	)); err != nil {
		t.Fatalf("First generate failed: %v", err)
	}

	set, _ := env.repo.FindSet(ctx, "doc-1", types.VariantStandard, "alloy")
	before, _ := env.repo.FindTrack(ctx, "doc-1", set.ID, "forward")
	if before == nil {
		t.Fatal("Expected track after first run")
	}

	req := standardRequest(types.SectionInput{SectionKey: "forward", Text: "Version one."})
	req.ForceRegenerate = true
	if _, err := env.orch.Generate(ctx, req); err != nil {
		t.Fatalf("Forced generate failed: %v", err)
	}

	after, _ := env.repo.FindTrack(ctx, "doc-1", set.ID, "forward")
	if after.ID != before.ID {
		t.Errorf("Regeneration must reuse the track ID: %s != %s", after.ID, before.ID)
	}
	if after.StorageKey == before.StorageKey {
		t.Error("Regeneration must produce a fresh cache-busting storage key")
	}
	if len(env.openai.Calls()) != 2 {
		t.Errorf("Force must synthesize again, calls = %d", len(env.openai.Calls()))
	}
}

func TestGenerate_MixPrerequisiteMissing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := standardRequest(types.SectionInput{SectionKey: "forward", Text: "Sleep well tonight."})
	req.Variant = types.VariantSleep

	report, err := env.orch.Generate(ctx, req)
	if err != nil {
		t.Fatalf("Generate returned batch error for native voice: %v", err)
	}

	res := report.Results[0]
	if res.Status != types.OutcomeFailed {
		t.Fatalf("Status = %s, want failed", res.Status)
	}
	if !strings.Contains(res.Error, "voice-only track") {
		t.Errorf("Error must name the missing dependency, got %q", res.Error)
	}
	if len(env.openai.Calls())+len(env.eleven.Calls()) != 0 {
		t.Error("Prerequisite failure must make zero provider calls")
	}

	set, _ := env.repo.FindSet(ctx, "doc-1", types.VariantSleep, "alloy")
	rec, _ := env.repo.FindTrack(ctx, "doc-1", set.ID, "forward")
	if rec == nil || rec.Status != types.TrackFailed {
		t.Errorf("Track must be marked failed, got %+v", rec)
	}
}

func TestGenerate_MixVariantReusesStandardTrack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	section := types.SectionInput{SectionKey: "forward", Text: "Drift into rest now."}

	// Step 1: voice-only generation
	first, err := env.orch.Generate(ctx, standardRequest(section))
	if err != nil {
		t.Fatalf("Standard generate failed: %v", err)
	}
	voiceURL := first.Results[0].AudioURL
	callsAfterStandard := len(env.openai.Calls())

	// Step 2: sleep mix built on top of it
	req := standardRequest(section)
	req.Variant = types.VariantSleep
	report, err := env.orch.Generate(ctx, req)
	if err != nil {
		t.Fatalf("Sleep generate failed: %v", err)
	}
	env.orch.Wait()

	res := report.Results[0]
	if res.Status != types.OutcomeGenerated {
		t.Fatalf("Status = %s, want generated", res.Status)
	}
	if res.AudioURL != voiceURL {
		t.Error("Mix variant must reuse the standard track's audio URL")
	}
	if len(env.openai.Calls()) != callsAfterStandard {
		t.Error("Mix variant must not synthesize new voice audio")
	}

	set, _ := env.repo.FindSet(ctx, "doc-1", types.VariantSleep, "alloy")
	rec, _ := env.repo.FindTrack(ctx, "doc-1", set.ID, "forward")
	if rec.MixStatus != types.MixPending {
		t.Errorf("MixStatus = %s, want pending", rec.MixStatus)
	}

	jobs := env.invoker.Recorded()
	if len(jobs) != 1 {
		t.Fatalf("Expected 1 mix job, got %d", len(jobs))
	}
	job := jobs[0]
	if job.VoiceURL != voiceURL {
		t.Errorf("Mix job voice URL = %s", job.VoiceURL)
	}
	if !strings.HasSuffix(job.OutputKey, "-mixed.mp3") {
		t.Errorf("Mix output key = %s", job.OutputKey)
	}
	if job.VoiceVolume != 0.3 || job.BgVolume != 0.7 {
		t.Errorf("Sleep volumes = %g/%g, want 0.3/0.7", job.VoiceVolume, job.BgVolume)
	}
	if job.TrackID != rec.ID {
		t.Errorf("Mix job track ID = %s, want %s", job.TrackID, rec.ID)
	}
}

func TestGenerate_PremiumFailFast(t *testing.T) {
	env := newTestEnv(t)
	env.eleven.SynthesizeFunc = func(ctx context.Context, req provider.TTSRequest) (*provider.TTSResponse, error) {
		if strings.Contains(req.Text, "broken") {
			return nil, &provider.SynthesisError{Provider: provider.ProviderElevenLabs, StatusCode: 500, Body: "server error"}
		}
		return &provider.TTSResponse{AudioData: []byte("audio"), Format: "mp3"}, nil
	}

	req := standardRequest(
		types.SectionInput{SectionKey: "one", Text: "First section works."},
		types.SectionInput{SectionKey: "two", Text: "This broken section fails."},
		types.SectionInput{SectionKey: "three", Text: "Never reached."},
	)
	req.VoiceID = "clone-rawElevenId42"

	report, err := env.orch.Generate(context.Background(), req)
	if err == nil {
		t.Fatal("Premium voice failure must abort the batch with an error")
	}

	// Results so far are preserved, section three is never attempted
	if len(report.Results) != 2 {
		t.Fatalf("Expected 2 results (abort before section three), got %d", len(report.Results))
	}
	if report.Results[0].Status != types.OutcomeGenerated {
		t.Errorf("Section one = %s, want generated", report.Results[0].Status)
	}
	if report.Results[1].Status != types.OutcomeFailed {
		t.Errorf("Section two = %s, want failed", report.Results[1].Status)
	}

	for _, call := range env.eleven.Calls() {
		if strings.Contains(call.Text, "Never reached") {
			t.Error("Section three must never be synthesized after the abort")
		}
	}
}

func TestGenerate_NativeContinuesOnFailure(t *testing.T) {
	env := newTestEnv(t)
	env.openai.SynthesizeFunc = func(ctx context.Context, req provider.TTSRequest) (*provider.TTSResponse, error) {
		if strings.Contains(req.Text, "broken") {
			return nil, &provider.SynthesisError{Provider: provider.ProviderOpenAI, StatusCode: 500, Body: "server error"}
		}
		return &provider.TTSResponse{AudioData: []byte("audio"), Format: "mp3"}, nil
	}

	req := standardRequest(
		types.SectionInput{SectionKey: "one", Text: "First section works."},
		types.SectionInput{SectionKey: "two", Text: "This broken section fails."},
		types.SectionInput{SectionKey: "three", Text: "Third section works."},
	)

	report, err := env.orch.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Native voice failure must not abort the batch: %v", err)
	}

	if len(report.Results) != 3 {
		t.Fatalf("Expected all 3 results, got %d", len(report.Results))
	}
	want := []types.SectionOutcome{types.OutcomeGenerated, types.OutcomeFailed, types.OutcomeGenerated}
	for i, w := range want {
		if report.Results[i].Status != w {
			t.Errorf("Result %d = %s, want %s", i, report.Results[i].Status, w)
		}
	}
}

func TestGenerate_DryRun(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := standardRequest(
		types.SectionInput{SectionKey: "forward", Text: "I am calm and focused."},
		types.SectionInput{SectionKey: "health", Text: "My body is strong."},
	)
	req.DryRun = true

	report, err := env.orch.Generate(ctx, req)
	if err != nil {
		t.Fatalf("Dry run failed: %v", err)
	}

	if !report.DryRun {
		t.Error("Report must be flagged as dry run")
	}
	for _, res := range report.Results {
		if res.Status != types.OutcomeGenerated {
			t.Errorf("Dry run result %s = %s, want generated", res.SectionKey, res.Status)
		}
	}
	if len(env.openai.Calls()) != 0 {
		t.Error("Dry run must make no provider calls")
	}
	if len(env.recorder.Entries) != 0 {
		t.Error("Dry run must record no usage")
	}
	if report.TotalCharacters == 0 || report.EstimatedCostCents < 0 {
		t.Error("Dry run must still compute character and cost accounting")
	}

	// No audio object may be uploaded
	keys, err := env.store.List(ctx, "user-uploads/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("Dry run must not upload audio, found %v", keys)
	}
}

func TestGenerate_DryRunRoutingMatchesLiveRun(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Pre-generate one section so the next call has a real skip decision
	if _, err := env.orch.Generate(ctx, standardRequest(
		types.SectionInput{SectionKey: "forward", Text: "Existing text."},
	)); err != nil {
		t.Fatalf("Setup generate failed: %v", err)
	}

	sections := []types.SectionInput{
		{SectionKey: "forward", Text: "Existing text."}, // should skip
		{SectionKey: "health", Text: "New text."},       // should generate
	}

	dry := standardRequest(sections...)
	dry.DryRun = true
	dryReport, err := env.orch.Generate(ctx, dry)
	if err != nil {
		t.Fatalf("Dry run failed: %v", err)
	}

	live := standardRequest(sections...)
	liveReport, err := env.orch.Generate(ctx, live)
	if err != nil {
		t.Fatalf("Live run failed: %v", err)
	}

	if len(dryReport.Results) != len(liveReport.Results) {
		t.Fatalf("Result counts differ: %d vs %d", len(dryReport.Results), len(liveReport.Results))
	}
	for i := range dryReport.Results {
		if dryReport.Results[i].Status != liveReport.Results[i].Status {
			t.Errorf("Routing for %s differs: dry=%s live=%s",
				dryReport.Results[i].SectionKey, dryReport.Results[i].Status, liveReport.Results[i].Status)
		}
	}
}

func TestGenerate_BatchProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	batch := &types.GenerationBatch{Status: types.BatchPending}
	if err := env.repo.SaveBatch(ctx, batch); err != nil {
		t.Fatalf("SaveBatch failed: %v", err)
	}

	env.openai.SynthesizeFunc = func(ctx context.Context, req provider.TTSRequest) (*provider.TTSResponse, error) {
		if strings.Contains(req.Text, "broken") {
			return nil, errors.New("synthesis blew up")
		}
		return &provider.TTSResponse{AudioData: []byte("audio"), Format: "mp3"}, nil
	}

	req := standardRequest(
		types.SectionInput{SectionKey: "one", Text: "Works fine."},
		types.SectionInput{SectionKey: "two", Text: "This is broken."},
		types.SectionInput{SectionKey: "three", Text: "Also works."},
	)
	req.BatchID = batch.ID

	if _, err := env.orch.Generate(ctx, req); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	final, err := env.repo.GetBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("GetBatch failed: %v", err)
	}
	if final.Status != types.BatchPartialSuccess {
		t.Errorf("Batch status = %s, want partial_success", final.Status)
	}
	if final.TracksCompleted != 2 || final.TracksFailed != 1 || final.TracksPending != 0 {
		t.Errorf("Counters = %d/%d/%d, want 2/1/0", final.TracksCompleted, final.TracksFailed, final.TracksPending)
	}
	if final.CompletedAt == nil {
		t.Error("Finalized batch must carry completed_at")
	}
	if len(final.AudioSetIDs) != 1 {
		t.Errorf("Batch must link the resolved audio set, got %v", final.AudioSetIDs)
	}
}

func TestDeriveBatchStatus(t *testing.T) {
	tests := []struct {
		completed, failed, total int
		want                     types.BatchStatus
	}{
		{3, 0, 3, types.BatchCompleted},
		{0, 3, 3, types.BatchFailed},
		{2, 1, 3, types.BatchPartialSuccess},
		{0, 0, 3, types.BatchFailed},
		{1, 2, 3, types.BatchPartialSuccess},
	}

	for _, tt := range tests {
		if got := DeriveBatchStatus(tt.completed, tt.failed, tt.total); got != tt.want {
			t.Errorf("DeriveBatchStatus(%d, %d, %d) = %s, want %s", tt.completed, tt.failed, tt.total, got, tt.want)
		}
	}
}

func TestGenerate_Cancellation(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := env.orch.Generate(ctx, standardRequest(
		types.SectionInput{SectionKey: "forward", Text: "Never synthesized."},
	))
	if err == nil {
		t.Fatal("Expected cancellation error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled in chain, got %v", err)
	}
	if report == nil {
		t.Fatal("Cancellation must still return the report so far")
	}
	if len(env.openai.Calls()) != 0 {
		t.Error("Cancelled run must not call the provider")
	}
}

func TestGenerate_FullTrackAssembly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	report, err := env.orch.Generate(ctx, standardRequest(
		types.SectionInput{SectionKey: "forward", Text: "Part one of the vision."},
		types.SectionInput{SectionKey: "health", Text: "Part two of the vision."},
	))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if report.Failed() != 0 {
		t.Fatalf("Expected all sections to succeed")
	}
	env.orch.Wait()

	set, _ := env.repo.FindSet(ctx, "doc-1", types.VariantStandard, "alloy")
	full, err := env.repo.FindTrack(ctx, "doc-1", set.ID, FullTrackSectionKey)
	if err != nil {
		t.Fatalf("FindTrack failed: %v", err)
	}
	if full == nil {
		t.Fatal("Expected combined full track record")
	}
	if full.Status != types.TrackCompleted {
		t.Errorf("Full track status = %s", full.Status)
	}

	exists, err := env.store.Exists(ctx, full.StorageKey)
	if err != nil || !exists {
		t.Errorf("Expected combined audio at %s", full.StorageKey)
	}
}

func TestGenerate_SingleSectionSkipsFullTrack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.orch.Generate(ctx, standardRequest(
		types.SectionInput{SectionKey: "forward", Text: "Only one section."},
	)); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	env.orch.Wait()

	set, _ := env.repo.FindSet(ctx, "doc-1", types.VariantStandard, "alloy")
	full, err := env.repo.FindTrack(ctx, "doc-1", set.ID, FullTrackSectionKey)
	if err != nil {
		t.Fatalf("FindTrack failed: %v", err)
	}
	if full != nil {
		t.Error("Single-section runs must not assemble a combined track")
	}
}

func TestOrchestrator_Preview(t *testing.T) {
	env := newTestEnv(t)

	audio, format, err := env.orch.Preview(context.Background(), "alloy", "mp3")
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if len(audio) == 0 || format != "mp3" {
		t.Errorf("Unexpected preview output: %d bytes, format %s", len(audio), format)
	}

	// Previews bill the system owner, never an end user
	for _, entry := range env.recorder.Entries {
		if entry.OwnerID != usage.SystemOwnerID {
			t.Errorf("Preview usage owner = %s, want %s", entry.OwnerID, usage.SystemOwnerID)
		}
	}
	if len(env.recorder.Entries) == 0 {
		t.Error("Preview must record usage")
	}
}

func TestOrchestrator_VoiceReferenceCached(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	url1, key, err := env.orch.GetOrCreateVoiceReference(ctx, "nova", "mp3")
	if err != nil {
		t.Fatalf("GetOrCreateVoiceReference failed: %v", err)
	}
	if key != "site-assets/voice-previews/nova.mp3" {
		t.Errorf("Key = %s", key)
	}
	firstCalls := len(env.openai.Calls())
	if firstCalls == 0 {
		t.Fatal("First reference request must synthesize")
	}

	url2, _, err := env.orch.GetOrCreateVoiceReference(ctx, "nova", "mp3")
	if err != nil {
		t.Fatalf("Second GetOrCreateVoiceReference failed: %v", err)
	}
	if url2 != url1 {
		t.Error("Cached reference must return the same URL")
	}
	if len(env.openai.Calls()) != firstCalls {
		t.Error("Second reference request must be served from the blob store")
	}
}
