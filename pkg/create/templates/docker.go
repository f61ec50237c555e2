package templates

// Dockerfile is the canonical recipe for the test image. The argument and
// path names are rendered from pkg/api/constants so the recipe and the
// build stay in agreement. The step order is load-bearing: the credential
// must be decoded and exported before the dependency install so a broken
// decode fails the build as early as possible, and the full source copy
// comes last so dependency layers stay cached across source changes.
const Dockerfile = `FROM {{.BaseImage}}

ARG {{.CredentialsBuildArg}}
ARG {{.ProjectIDBuildArg}}

RUN mkdir {{.CredentialsImageDir}}
RUN echo "${{.CredentialsBuildArg}}" | base64 -d > {{.CredentialsImagePath}}
ENV {{.CredentialsEnv}}={{.CredentialsImagePath}}

RUN pip install {{.TestRunner}}

WORKDIR /code
COPY requirements.txt setup.py ./
RUN pip install -r requirements.txt

ENV {{.ProjectIDEnv}}=${{.ProjectIDBuildArg}}

COPY . .

CMD ["{{.TestRunner}}"]
`
